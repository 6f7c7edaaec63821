package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/config"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{
		GeminiAPIKey:   "test-key",
		GeminiTTSModel: "test-tts",
		GeminiVoice:    "Zephyr",
	}
	c := NewClient(cfg, zerolog.Nop())
	c.baseURL = baseURL
	return c
}

func TestSpeak(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	var gotReq speakRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"inlineData": map[string]string{
							"mimeType": "audio/pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						}},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Speak(context.Background(), "Summary text")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}

	if gotReq.GenerationConfig == nil || len(gotReq.GenerationConfig.ResponseModalities) != 1 ||
		gotReq.GenerationConfig.ResponseModalities[0] != "AUDIO" {
		t.Errorf("request did not ask for audio: %+v", gotReq.GenerationConfig)
	}
	voice := gotReq.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName
	if voice != "Zephyr" {
		t.Errorf("voice = %q", voice)
	}
}

func TestSpeakEmptyText(t *testing.T) {
	_, err := newTestClient("http://unused.invalid").Speak(context.Background(), "   ")
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestSpeakServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Speak(context.Background(), "hello")
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestSpeakNoAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{}]}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Speak(context.Background(), "hello")
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deepakbalivada04/MediConvo/internal/audio"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoService accepts one connection, validates the setup message, acks it
// and then reflects realtimeInput audio back as transcription events.
func echoService(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var setup ClientMessage
		if err := conn.ReadJSON(&setup); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if setup.Setup == nil || !strings.HasPrefix(setup.Setup.Model, "models/") {
			t.Errorf("malformed setup message: %+v", setup)
			return
		}
		if setup.Setup.InputAudioTranscription == nil || setup.Setup.OutputAudioTranscription == nil {
			t.Error("setup did not request transcription")
		}

		if err := conn.WriteJSON(ServerMessage{SetupComplete: &SetupComplete{}}); err != nil {
			return
		}

		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.RealtimeInput == nil || msg.RealtimeInput.Audio == nil {
				continue
			}
			event := ServerMessage{ServerContent: &ServerContent{
				InputTranscription: &Transcription{Text: "echo"},
				TurnComplete:       true,
			}}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDialAndStream(t *testing.T) {
	srv := echoService(t)
	defer srv.Close()

	client, err := Dial(context.Background(), DialOptions{
		Endpoint:          wsURL(srv),
		APIKey:            "test-key",
		Model:             "test-model",
		Voice:             "Zephyr",
		SystemInstruction: "translate",
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	first, ok := readEvent(t, client)
	if !ok || first.SetupComplete == nil {
		t.Fatalf("expected setupComplete first, got %+v", first)
	}

	frame := audio.EncodeFrame(make([]int16, 512), 16000)
	if err := client.SendAudio(frame); err != nil {
		t.Fatalf("send audio: %v", err)
	}

	event, ok := readEvent(t, client)
	if !ok || event.ServerContent == nil {
		t.Fatalf("expected server content, got %+v", event)
	}
	if event.ServerContent.InputTranscription.Text != "echo" || !event.ServerContent.TurnComplete {
		t.Errorf("unexpected event: %+v", event.ServerContent)
	}
}

func TestClientCloseIsCleanAndIdempotent(t *testing.T) {
	srv := echoService(t)
	defer srv.Close()

	client, err := Dial(context.Background(), DialOptions{
		Endpoint: wsURL(srv),
		APIKey:   "test-key",
		Model:    "test-model",
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	// The event channel drains and closes after teardown.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-client.Events():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("event channel never closed")
		}
	}
}

func TestClientDialRefused(t *testing.T) {
	srv := echoService(t)
	srv.Close()

	_, err := Dial(context.Background(), DialOptions{
		Endpoint: wsURL(srv),
		APIKey:   "test-key",
		Model:    "test-model",
	})
	if err == nil {
		t.Fatal("expected dial error against closed server")
	}
}

func readEvent(t *testing.T, client *Client) (ServerMessage, bool) {
	t.Helper()
	select {
	case msg, ok := <-client.Events():
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server event")
		return ServerMessage{}, false
	}
}

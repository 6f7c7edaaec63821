package audio

import (
	"encoding/base64"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	frame := []int16{0, 1, -1, 256}
	blob := EncodeFrame(frame, 16000)

	if blob.MimeType != "audio/pcm;rate=16000" {
		t.Errorf("Expected mime 'audio/pcm;rate=16000', got '%s'", blob.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if len(raw) != len(frame)*2 {
		t.Errorf("Expected %d bytes, got %d", len(frame)*2, len(raw))
	}

	// Little-endian round trip
	samples := BytesToSamples(raw)
	for i, want := range frame {
		if samples[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, samples[i])
		}
	}
}

func TestEncodeFrame_Deterministic(t *testing.T) {
	frame := []int16{10, 20, 30}
	a := EncodeFrame(frame, 16000)
	b := EncodeFrame(frame, 16000)
	if a != b {
		t.Error("EncodeFrame must be deterministic for identical input")
	}
}

func TestSamplesToBytes_RoundTrip(t *testing.T) {
	samples := []int16{-32768, -1, 0, 1, 32767}
	got := BytesToSamples(SamplesToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestResample_SameRate(t *testing.T) {
	samples := []int16{1, 2, 3}
	out := Resample(samples, 16000, 16000)
	if len(out) != 3 {
		t.Errorf("Expected passthrough at equal rates, got %d samples", len(out))
	}
}

func TestResample_Downsample(t *testing.T) {
	samples := make([]int16, 240) // 10ms at 24kHz
	out := Resample(samples, 24000, 8000)
	if len(out) != 80 {
		t.Errorf("Expected 80 samples after 24k->8k resample, got %d", len(out))
	}
}

func TestResample_Upsample(t *testing.T) {
	samples := []int16{0, 300}
	out := Resample(samples, 8000, 16000)
	if len(out) != 4 {
		t.Fatalf("Expected 4 samples after 8k->16k resample, got %d", len(out))
	}
	// Interpolated midpoint between 0 and 300
	if out[1] != 150 {
		t.Errorf("Expected interpolated sample 150, got %d", out[1])
	}
}

func TestDecodeBlob_Invalid(t *testing.T) {
	if _, err := DecodeBlob("not base64!!"); err == nil {
		t.Error("Expected error for invalid base64 payload")
	}
}

func TestLevel(t *testing.T) {
	if got := Level(nil); got != 0 {
		t.Errorf("Expected level 0 for empty frame, got %f", got)
	}

	silent := make([]int16, 100)
	if got := Level(silent); got != 0 {
		t.Errorf("Expected level 0 for silence, got %f", got)
	}

	loud := make([]int16, 100)
	for i := range loud {
		loud[i] = 32767
	}
	if got := Level(loud); got != 1 {
		t.Errorf("Expected level clamped to 1 for full-scale input, got %f", got)
	}

	quiet := make([]int16, 100)
	for i := range quiet {
		quiet[i] = 1638 // ~5% amplitude
	}
	got := Level(quiet)
	if got <= 0 || got >= 1 {
		t.Errorf("Expected mid-range level in (0, 1), got %f", got)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredential is returned when the Gemini API key is absent.
// A live session must never be attempted without it.
var ErrMissingCredential = errors.New("GEMINI_API_KEY is required")

// Config holds all configuration for the consultation gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Gemini API configuration. One credential covers the live translation
	// session, summary generation and text-to-speech.
	GeminiAPIKey       string `envconfig:"GEMINI_API_KEY"`
	GeminiLiveModel    string `envconfig:"GEMINI_LIVE_MODEL" default:"gemini-2.5-flash-native-audio-preview-09-2025"`
	GeminiSummaryModel string `envconfig:"GEMINI_SUMMARY_MODEL" default:"gemini-2.5-flash"`
	GeminiTTSModel     string `envconfig:"GEMINI_TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	GeminiVoice        string `envconfig:"GEMINI_VOICE" default:"Zephyr"`

	// Deepgram STT API configuration, used only for prerecorded voice-note
	// transcription on the doctor dashboard. Optional; the feature is
	// disabled when the key is empty.
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Audio processing configuration
	CaptureSampleRate  int `envconfig:"CAPTURE_SAMPLE_RATE" default:"16000"`  // Microphone PCM rate sent upstream
	PlaybackSampleRate int `envconfig:"PLAYBACK_SAMPLE_RATE" default:"24000"` // Rate of audio returned by the live service
	AudioBufferSize    int `envconfig:"AUDIO_BUFFER_SIZE" default:"8192"`     // Ring buffer size in bytes

	// Document output configuration
	DocumentDir string `envconfig:"DOCUMENT_DIR" default:"downloads"` // Where rendered prescriptions are saved

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingCredential
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingCredential
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package live

import "github.com/deepakbalivada04/MediConvo/internal/audio"

// Wire structs for the bidirectional translation session. The client sends a
// setup message followed by realtime audio input; the server streams content
// messages carrying any of: inline audio, partial input/output
// transcriptions, and a turn-complete marker.

// Setup opens a session: model, generation parameters and the system
// instruction embedding the target language.
type Setup struct {
	Model                    string                    `json:"model"`
	GenerationConfig         *GenerationConfig         `json:"generationConfig,omitempty"`
	SystemInstruction        *Content                  `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *AudioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
	Temperature        float64       `json:"temperature,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *audio.Blob `json:"inlineData,omitempty"`
}

// AudioTranscriptionConfig requests transcription for one direction. The
// service takes an empty object; presence is the capability flag.
type AudioTranscriptionConfig struct{}

// ClientMessage is the envelope for everything sent upstream.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}

type RealtimeInput struct {
	Audio          *audio.Blob `json:"audio,omitempty"`
	AudioStreamEnd bool        `json:"audioStreamEnd,omitempty"`
}

// ServerMessage is the envelope for everything received downstream.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
}

type SetupComplete struct {
	SessionID string `json:"sessionId,omitempty"`
}

type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

type Transcription struct {
	Text     string `json:"text,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

type UsageMetadata struct {
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	AudioDurationSeconds int `json:"audioDurationSeconds,omitempty"`
}

type GoAway struct {
	TimeLeft interface{} `json:"timeLeft,omitempty"`
}

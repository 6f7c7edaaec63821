// Package transcribe converts recorded voice notes to text using Deepgram's
// streaming API. Voice notes are short clinician dictations attached to a
// consultation record.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/config"
)

// ErrTranscription wraps any failure to transcribe a voice note.
var ErrTranscription = errors.New("voice note transcription failed")

const chunkSize = 8192

// Transcriber streams voice-note audio to Deepgram and collects the final
// transcript segments.
type Transcriber struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewTranscriber builds a transcriber from service configuration.
func NewTranscriber(cfg *config.Config, logger zerolog.Logger) *Transcriber {
	return &Transcriber{cfg: cfg, logger: logger}
}

// collector implements the LiveMessageCallback interface. It embeds the
// default handler and overrides only the callbacks it needs.
type collector struct {
	*websocketv1api.DefaultCallbackHandler

	mu       sync.Mutex
	segments []string
	err      error
	done     chan struct{}
	once     sync.Once
}

func newCollector() *collector {
	return &collector{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		done:                   make(chan struct{}),
	}
}

// Message collects final transcript segments in order; interim results are
// ignored.
func (c *collector) Message(msg *msginterfaces.MessageResponse) error {
	if msg == nil || !msg.IsFinal {
		return nil
	}
	if len(msg.Channel.Alternatives) == 0 {
		return nil
	}
	text := strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
	if text == "" {
		return nil
	}
	c.mu.Lock()
	c.segments = append(c.segments, text)
	c.mu.Unlock()
	return nil
}

// Close fires when the stream finishes after the final audio chunk.
func (c *collector) Close(resp *msginterfaces.CloseResponse) error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// Error records the first failure and unblocks the waiter.
func (c *collector) Error(resp *msginterfaces.ErrorResponse) error {
	c.mu.Lock()
	if c.err == nil && resp != nil {
		c.err = fmt.Errorf("%w: %s", ErrTranscription, resp.Description)
	}
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *collector) result() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.segments, " "), c.err
}

// TranscribeNote streams one recorded voice note (PCM16 mono at the capture
// rate) through Deepgram and returns the assembled transcript.
func (t *Transcriber) TranscribeNote(ctx context.Context, pcm []byte) (string, error) {
	if t.cfg.DeepgramAPIKey == "" {
		return "", fmt.Errorf("%w: %s", config.ErrMissingCredential, "DEEPGRAM_API_KEY")
	}
	if len(pcm) == 0 {
		return "", fmt.Errorf("%w: empty recording", ErrTranscription)
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:      t.cfg.DeepgramModel,
		Language:   t.cfg.DeepgramLanguage,
		Punctuate:  true,
		Encoding:   "linear16",
		Channels:   1,
		SampleRate: t.cfg.CaptureSampleRate,
	}

	callback := newCollector()
	client, err := listenClient.NewWSUsingCallback(ctx, t.cfg.DeepgramAPIKey, nil, tOptions, callback)
	if err != nil {
		return "", fmt.Errorf("%w: connect: %v", ErrTranscription, err)
	}

	for offset := 0; offset < len(pcm); offset += chunkSize {
		end := offset + chunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if _, err := client.Write(pcm[offset:end]); err != nil {
			client.Finish()
			return "", fmt.Errorf("%w: send audio: %v", ErrTranscription, err)
		}
	}
	client.Finish()

	select {
	case <-callback.done:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrTranscription, ctx.Err())
	case <-time.After(30 * time.Second):
		return "", fmt.Errorf("%w: timed out waiting for results", ErrTranscription)
	}

	text, err := callback.result()
	if err != nil {
		return "", err
	}
	t.logger.Info().Int("bytes", len(pcm)).Int("chars", len(text)).Msg("Voice note transcribed")
	return text, nil
}

package live

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/audio"
	"github.com/deepakbalivada04/MediConvo/internal/config"
	"github.com/deepakbalivada04/MediConvo/internal/observability"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Dialer opens the upstream transport. Injected so tests can run without a
// network.
type Dialer func(ctx context.Context, opts DialOptions) (Transport, error)

// Callbacks publish live session output. All callbacks are optional and are
// invoked from session goroutines; implementations must be fast and
// non-blocking.
type Callbacks struct {
	// OnPartial republishes the open accumulators whenever partial
	// transcription text arrives, and with empty strings when a turn is
	// committed.
	OnPartial func(input, output string)

	// OnMessages delivers newly committed transcript entries in order.
	OnMessages func(messages []ChatMessage)

	// OnState reports lifecycle transitions.
	OnState func(state State)

	// OnLevel reports the approximate input level of each captured frame.
	OnLevel func(level float64)
}

// Session owns the lifecycle of one live translation session: connect,
// stream capture frames out, fold inbound events into the transcript, and
// tear down cleanly on every exit path. One session per client at a time; a
// new session may only be started from idle.
type Session struct {
	cfg       *config.Config
	capture   audio.CaptureSource
	scheduler *audio.Scheduler
	callbacks Callbacks
	dial      Dialer
	logger    zerolog.Logger
	metrics   *observability.Metrics

	mu            sync.Mutex
	state         State
	transport     Transport
	cancel        context.CancelFunc
	pendingInput  strings.Builder
	pendingOutput strings.Builder
	transcript    []ChatMessage

	now func() time.Time
}

// Option customizes session construction.
type Option func(*Session)

// WithDialer swaps the upstream dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dial = d }
}

// NewSession creates an idle session around a capture source and playback
// scheduler.
func NewSession(cfg *config.Config, capture audio.CaptureSource, scheduler *audio.Scheduler, callbacks Callbacks, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		capture:   capture,
		scheduler: scheduler,
		callbacks: callbacks,
		dial: func(ctx context.Context, opts DialOptions) (Transport, error) {
			return Dial(ctx, opts)
		},
		logger:  logger,
		metrics: observability.NewSessionMetrics(observability.NewCorrelationID()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InterpreterInstruction builds the system instruction for a bidirectional
// medical interpretation session with the given patient language.
func InterpreterInstruction(patientLanguage string) string {
	// Explicitly mentioning Oriya improves Odia support.
	target := patientLanguage
	if target == "Odia" {
		target = "Odia (Oriya)"
	}

	return fmt.Sprintf(`You are a professional, simultaneous medical interpreter.
Your task is to translate spoken audio in real-time between English and %[1]s.

Rules:
1. If you hear English, translate it to %[1]s.
2. If you hear %[1]s, translate it to English.
3. Output ONLY the translated speech audio and the translated text.
4. Do NOT add conversational fillers like "Sure", "Okay", "Here is the translation". Just translate.
5. Maintain the tone, urgency, and emotion of the speaker.
6. Be precise with medical terminology.
7. ALWAYS ensure the output transcription text is generated in the target language script or English as appropriate.`, target)
}

// Start opens the session for the given patient language. Fails fast with
// config.ErrMissingCredential when no service credential is configured, and
// with the capture error when the microphone is denied or absent.
func (s *Session) Start(ctx context.Context, patientLanguage string) error {
	if s.cfg.GeminiAPIKey == "" {
		return config.ErrMissingCredential
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session already active (state %s)", s.state)
	}
	s.setStateLocked(StateConnecting)
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	frames, err := s.capture.Start(sctx)
	if err != nil {
		s.mu.Lock()
		s.setStateLocked(StateIdle)
		s.cancel = nil
		s.mu.Unlock()
		cancel()
		return err
	}

	transport, err := s.dial(sctx, DialOptions{
		APIKey:            s.cfg.GeminiAPIKey,
		Model:             s.cfg.GeminiLiveModel,
		Voice:             s.cfg.GeminiVoice,
		SystemInstruction: InterpreterInstruction(patientLanguage),
	})
	if err != nil {
		s.capture.Stop()
		s.mu.Lock()
		s.setStateLocked(StateError)
		s.cancel = nil
		s.mu.Unlock()
		cancel()
		s.metrics.RecordError("dial_error", "live")
		return err
	}

	s.mu.Lock()
	s.transport = transport
	s.setStateLocked(StateConnected)
	s.mu.Unlock()

	s.metrics.RecordSessionStart()
	s.logger.Info().Str("language", patientLanguage).Msg("Live translation session connected")

	go s.pumpFrames(frames, transport)
	go s.eventLoop(transport)

	return nil
}

// pumpFrames encodes captured frames and streams them upstream until the
// capture stream closes.
func (s *Session) pumpFrames(frames <-chan []int16, transport Transport) {
	rate := s.capture.SampleRate()
	for frame := range frames {
		if s.callbacks.OnLevel != nil {
			s.callbacks.OnLevel(audio.Level(frame))
		}
		s.metrics.RecordAudioBytes("in", int64(len(frame)*2))

		if err := transport.SendAudio(audio.EncodeFrame(frame, rate)); err != nil {
			s.logger.Error().Err(err).Msg("Failed to send audio frame")
			s.metrics.RecordError("send_error", "live")
			s.transportFailed()
			return
		}
	}
}

// eventLoop processes inbound server events strictly in arrival order.
func (s *Session) eventLoop(transport Transport) {
	for msg := range transport.Events() {
		s.HandleServerEvent(msg)
	}
	if err := transport.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Live transport closed with error")
		s.metrics.RecordError("transport_error", "live")
		s.transportFailed()
	}
}

// transportFailed moves a connected session to the error state and halts
// streaming. No automatic retry; the caller offers a manual restart.
func (s *Session) transportFailed() {
	s.mu.Lock()
	if s.state != StateConnected && s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateError)
	s.mu.Unlock()

	s.capture.Stop()
	s.scheduler.StopAll()
}

// HandleServerEvent applies one inbound event. Three independent effects may
// apply: inline audio is scheduled for playback, partial transcription text
// grows the per-direction accumulators, and a turn-complete marker flushes
// both accumulators into the transcript.
func (s *Session) HandleServerEvent(msg ServerMessage) {
	content := msg.ServerContent
	if content == nil {
		if msg.SetupComplete != nil {
			s.logger.Debug().Str("session_id", msg.SetupComplete.SessionID).Msg("Live setup complete")
		}
		return
	}

	s.mu.Lock()
	playing := s.state == StateConnected
	s.mu.Unlock()

	// Events may still be buffered in the transport channel when the
	// session is torn down; scheduling their audio would re-arm playback
	// after StopAll.
	if content.ModelTurn != nil && playing {
		for _, part := range content.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := audio.DecodeBlob(part.InlineData.Data)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to decode inline audio")
				s.metrics.RecordError("decode_error", "live")
				continue
			}
			s.metrics.RecordAudioBytes("out", int64(len(pcm)))
			s.scheduler.Schedule(pcm)
		}
	}

	if content.Interrupted {
		// The speaker talked over pending output; discard what has not
		// played yet.
		s.scheduler.StopAll()
	}

	s.mu.Lock()
	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		s.pendingInput.WriteString(content.InputTranscription.Text)
	}
	if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		s.pendingOutput.WriteString(content.OutputTranscription.Text)
	}
	partialIn := s.pendingInput.String()
	partialOut := s.pendingOutput.String()

	var committed []ChatMessage
	if content.TurnComplete {
		committed = s.flushLocked()
		partialIn, partialOut = "", ""
	}
	s.mu.Unlock()

	if s.callbacks.OnPartial != nil &&
		(content.InputTranscription != nil || content.OutputTranscription != nil || content.TurnComplete) {
		s.callbacks.OnPartial(partialIn, partialOut)
	}
	if len(committed) > 0 && s.callbacks.OnMessages != nil {
		s.callbacks.OnMessages(committed)
	}
}

// flushLocked commits both accumulators in source-then-translated order and
// resets them. Whitespace-only accumulators commit nothing. Caller holds mu.
func (s *Session) flushLocked() []ChatMessage {
	var committed []ChatMessage

	if text := strings.TrimSpace(s.pendingInput.String()); text != "" {
		committed = append(committed, ChatMessage{Role: RoleUser, Text: text, Timestamp: s.now()})
	}
	if text := strings.TrimSpace(s.pendingOutput.String()); text != "" {
		committed = append(committed, ChatMessage{Role: RoleModel, Text: text, Timestamp: s.now()})
	}
	s.pendingInput.Reset()
	s.pendingOutput.Reset()

	if len(committed) > 0 {
		s.transcript = append(s.transcript, committed...)
		for range committed {
			s.metrics.RecordTurnCommitted()
		}
	}
	return committed
}

// Stop tears the session down: capture, playback and transport are all
// released. Idempotent and safe from any state, including mid-connect;
// stopping a session that never started leaves its capture source usable.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	transport := s.transport
	wasOpen := s.state == StateConnected || s.state == StateConnecting
	// A session that never started owns no capture or playback resources;
	// stopping the capture source here would leave it unusable for a later
	// Start, since a source cannot be restarted once stopped.
	started := cancel != nil || wasOpen
	s.cancel = nil
	s.transport = nil
	if s.state != StateIdle {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		s.capture.Stop()
		s.scheduler.StopAll()
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Transport close")
		}
	}
	if wasOpen {
		s.metrics.RecordSessionEnd()
		s.logger.Info().Msg("Live translation session stopped")
	}
}

// Finish stops the session and captures any still-pending accumulator text
// as trailing transcript entries, so nothing said mid-turn is lost on an
// abrupt end. Returns the complete ordered transcript.
func (s *Session) Finish() []ChatMessage {
	s.Stop()

	s.mu.Lock()
	trailing := s.flushLocked()
	final := make([]ChatMessage, len(s.transcript))
	copy(final, s.transcript)
	s.mu.Unlock()

	if len(trailing) > 0 && s.callbacks.OnMessages != nil {
		s.callbacks.OnMessages(trailing)
	}
	if s.callbacks.OnPartial != nil {
		s.callbacks.OnPartial("", "")
	}
	return final
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the committed transcript so far.
func (s *Session) Transcript() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) setStateLocked(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.callbacks.OnState != nil {
		s.callbacks.OnState(state)
	}
}

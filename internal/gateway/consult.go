package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/audio"
	"github.com/deepakbalivada04/MediConvo/internal/config"
	"github.com/deepakbalivada04/MediConvo/internal/live"
	"github.com/deepakbalivada04/MediConvo/internal/observability"
	"github.com/deepakbalivada04/MediConvo/internal/store"
	"github.com/deepakbalivada04/MediConvo/internal/summary"
)

var upgrader = websocket.Upgrader{
	// TODO: restrict origins once the front-end host list is settled.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// clientEvent is a message from the browser.
type clientEvent struct {
	Event   string         `json:"event"` // start | media | stop
	Patient *store.Patient `json:"patient,omitempty"`
	Payload string         `json:"payload,omitempty"` // base64 PCM16 for media
}

// serverEvent is a message to the browser.
type serverEvent struct {
	Event      string                    `json:"event"`
	Input      string                    `json:"input,omitempty"`
	Output     string                    `json:"output,omitempty"`
	Messages   []live.ChatMessage        `json:"messages,omitempty"`
	Payload    string                    `json:"payload,omitempty"`
	SampleRate int                       `json:"sampleRate,omitempty"`
	Level      float64                   `json:"level,omitempty"`
	State      string                    `json:"state,omitempty"`
	Message    string                    `json:"message,omitempty"`
	Record     *store.ConsultationRecord `json:"record,omitempty"`
}

// consultStream owns one browser connection and its live session.
type consultStream struct {
	conn        *websocket.Conn
	cfg         *config.Config
	store       *store.Memory
	summarizer  *summary.Client
	logger      zerolog.Logger
	sessionOpts []live.Option

	writeMu sync.Mutex

	mu        sync.Mutex
	session   *live.Session
	capture   *audio.ChannelSource
	inbound   *audio.RingBuffer
	patient   store.Patient
	startedAt time.Time

	finalizeOnce sync.Once
}

// handleConsult upgrades the connection and runs the stream until the
// browser disconnects or sends stop. The consultation record is saved on
// every exit path once a session was started.
func (g *Gateway) handleConsult(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	stream := &consultStream{
		conn:        conn,
		cfg:         g.cfg,
		store:       g.store,
		summarizer:  g.summarizer,
		logger:      observability.WithCorrelationID(observability.NewCorrelationID()),
		sessionOpts: g.sessionOpts,
	}
	stream.logger.Info().Msg("Consultation stream connected")

	stream.readLoop(r.Context())
	stream.finalize(context.Background())
}

func (cs *consultStream) readLoop(ctx context.Context) {
	for {
		_, raw, err := cs.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cs.logger.Warn().Err(err).Msg("Websocket read error")
			}
			return
		}

		var msg clientEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			cs.logger.Error().Err(err).Msg("Malformed client event")
			continue
		}

		switch msg.Event {
		case "start":
			cs.handleStart(ctx, msg)
		case "media":
			cs.handleMedia(msg)
		case "stop":
			return
		default:
			cs.logger.Debug().Str("event", msg.Event).Msg("Ignoring unknown client event")
		}
	}
}

func (cs *consultStream) handleStart(ctx context.Context, msg clientEvent) {
	if msg.Patient == nil || msg.Patient.PrimaryLanguage == "" {
		cs.sendError("start requires a patient with a primary language")
		return
	}

	cs.mu.Lock()
	if cs.session != nil {
		cs.mu.Unlock()
		cs.sendError("session already started")
		return
	}

	cs.patient = *msg.Patient
	cs.startedAt = time.Now()
	cs.store.UpsertPatient(cs.patient)

	capture := audio.NewChannelSource(cs.cfg.CaptureSampleRate)
	scheduler := audio.NewScheduler(audio.SinkFunc(cs.sendAudio), cs.cfg.PlaybackSampleRate)
	session := live.NewSession(cs.cfg, capture, scheduler, live.Callbacks{
		OnPartial: func(input, output string) {
			cs.send(serverEvent{Event: "partial", Input: input, Output: output})
		},
		OnMessages: func(messages []live.ChatMessage) {
			cs.send(serverEvent{Event: "message", Messages: messages})
		},
		OnState: func(state live.State) {
			cs.send(serverEvent{Event: "status", State: state.String()})
		},
		OnLevel: func(level float64) {
			cs.send(serverEvent{Event: "level", Level: level})
		},
	}, cs.logger, cs.sessionOpts...)

	cs.capture = capture
	cs.session = session
	cs.inbound = audio.NewRingBuffer(cs.cfg.AudioBufferSize)
	cs.mu.Unlock()

	if err := session.Start(ctx, cs.patient.PrimaryLanguage); err != nil {
		cs.mu.Lock()
		cs.session = nil
		cs.capture = nil
		cs.mu.Unlock()

		switch {
		case errors.Is(err, config.ErrMissingCredential):
			cs.sendError("translation service credential is not configured")
		case errors.Is(err, audio.ErrPermissionDenied):
			cs.sendError("microphone permission denied")
		case errors.Is(err, audio.ErrDeviceUnavailable):
			cs.sendError("microphone unavailable")
		default:
			cs.logger.Error().Err(err).Msg("Session start failed")
			cs.sendError("could not connect to the translation service")
		}
	}
}

// handleMedia collects inbound PCM and forwards it in fixed 20ms frames.
// Browsers deliver chunks of whatever size their worklet produced; the ring
// buffer reassembles them so upstream frames stay uniform.
func (cs *consultStream) handleMedia(msg clientEvent) {
	cs.mu.Lock()
	capture := cs.capture
	inbound := cs.inbound
	cs.mu.Unlock()
	if capture == nil || inbound == nil {
		return
	}

	pcm, err := base64.StdEncoding.DecodeString(msg.Payload)
	if err != nil {
		cs.logger.Error().Err(err).Msg("Malformed media payload")
		return
	}
	inbound.Write(pcm)

	frameBytes := cs.cfg.CaptureSampleRate / 50 * 2
	frame := make([]byte, frameBytes)
	for inbound.Available() >= frameBytes {
		inbound.Read(frame)
		capture.Push(audio.BytesToSamples(frame))
	}
}

// finalize ends the session, generates the summary and saves the record.
// A summary failure downgrades to an empty summary; the transcript is never
// lost to a downstream failure.
func (cs *consultStream) finalize(ctx context.Context) {
	cs.finalizeOnce.Do(func() {
		cs.mu.Lock()
		session := cs.session
		patient := cs.patient
		startedAt := cs.startedAt
		cs.mu.Unlock()

		if session == nil {
			return
		}
		transcript := session.Finish()
		if len(transcript) == 0 {
			cs.logger.Info().Msg("Session ended with empty transcript, nothing to save")
			return
		}

		status := store.StatusCompleted
		summaryText, err := cs.summarizer.Generate(ctx, transcript)
		if err != nil {
			cs.logger.Warn().Err(err).Msg("Summary generation failed, saving record without summary")
			cs.sendError("summary generation failed")
			summaryText = ""
			status = store.StatusPending
		}

		rec := store.ConsultationRecord{
			ID:         store.NewRecordID(),
			PatientID:  patient.ID,
			Date:       time.Now(),
			Transcript: transcript,
			Summary:    summaryText,
			Status:     status,
		}
		cs.store.AddRecord(rec, time.Since(startedAt))
		cs.send(serverEvent{Event: "saved", Record: &rec})
		cs.logger.Info().Str("record_id", rec.ID).Int("turns", len(transcript)).Msg("Consultation saved")
	})
}

func (cs *consultStream) sendAudio(pcm []byte) {
	cs.send(serverEvent{
		Event:      "audio",
		Payload:    base64.StdEncoding.EncodeToString(pcm),
		SampleRate: cs.cfg.PlaybackSampleRate,
	})
}

func (cs *consultStream) sendError(message string) {
	cs.send(serverEvent{Event: "error", Message: message})
}

func (cs *consultStream) send(event serverEvent) {
	cs.writeMu.Lock()
	defer cs.writeMu.Unlock()
	if err := cs.conn.WriteJSON(event); err != nil {
		cs.logger.Debug().Err(err).Str("event", event.Event).Msg("Websocket write failed")
	}
}

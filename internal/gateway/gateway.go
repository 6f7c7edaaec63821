// Package gateway exposes the consultation service over HTTP: a websocket
// stream for live sessions and a small REST surface for records, stats,
// documents and voice notes.
package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/config"
	"github.com/deepakbalivada04/MediConvo/internal/document"
	"github.com/deepakbalivada04/MediConvo/internal/live"
	"github.com/deepakbalivada04/MediConvo/internal/store"
	"github.com/deepakbalivada04/MediConvo/internal/summary"
	"github.com/deepakbalivada04/MediConvo/internal/transcribe"
	"github.com/deepakbalivada04/MediConvo/internal/tts"
)

// Gateway wires the HTTP surface to the service's collaborators.
type Gateway struct {
	cfg         *config.Config
	store       *store.Memory
	summarizer  *summary.Client
	transcriber *transcribe.Transcriber
	speech      *tts.Client
	logger      zerolog.Logger

	// sessionOpts is injected by tests to fake the upstream transport.
	sessionOpts []live.Option
}

// New assembles a gateway.
func New(cfg *config.Config, mem *store.Memory, summarizer *summary.Client, transcriber *transcribe.Transcriber, speech *tts.Client, logger zerolog.Logger) *Gateway {
	return &Gateway{
		cfg:         cfg,
		store:       mem,
		summarizer:  summarizer,
		transcriber: transcriber,
		speech:      speech,
		logger:      logger,
	}
}

// Register mounts all routes on the mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/consult", g.handleConsult)

	mux.HandleFunc("GET /api/records", g.handleListRecords)
	mux.HandleFunc("GET /api/records/{id}", g.handleGetRecord)
	mux.HandleFunc("GET /api/records/{id}/prescription", g.handlePrescription)
	mux.HandleFunc("POST /api/records/{id}/speak", g.handleSpeak)
	mux.HandleFunc("GET /api/stats", g.handleStats)
	mux.HandleFunc("GET /api/patients", g.handleListPatients)
	mux.HandleFunc("POST /api/patients", g.handleUpsertPatient)
	mux.HandleFunc("POST /api/notes/transcribe", g.handleTranscribeNote)
}

func (g *Gateway) handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.store.Records())
}

func (g *Gateway) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.store.GetRecord(r.PathValue("id"))
	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handlePrescription renders the printable sheet for a record on demand.
// Extraction runs fresh on every request; nothing derived is persisted.
func (g *Gateway) handlePrescription(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.store.GetRecord(r.PathValue("id"))
	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	patient, _ := g.store.GetPatient(rec.PatientID)

	p := document.Prescription{
		RecordID:      rec.ID,
		PatientName:   patient.Name,
		PatientDOB:    patient.DateOfBirth,
		PatientGender: patient.Gender,
		Summary:       rec.Summary,
		Date:          time.Now(),
	}
	data, err := document.Render(p)
	if err != nil {
		g.logger.Error().Err(err).Str("record_id", rec.ID).Msg("Prescription render failed")
		http.Error(w, "failed to render prescription", http.StatusInternalServerError)
		return
	}
	if g.cfg.DocumentDir != "" {
		path := filepath.Join(g.cfg.DocumentDir, document.Filename(rec.ID))
		saveErr := os.MkdirAll(g.cfg.DocumentDir, 0o755)
		if saveErr == nil {
			saveErr = os.WriteFile(path, data, 0o644)
		}
		if saveErr != nil {
			g.logger.Warn().Err(saveErr).Msg("Could not save prescription copy")
		} else {
			g.logger.Debug().Str("path", path).Msg("Prescription saved")
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+document.Filename(rec.ID)+`"`)
	w.Write(data)
}

// handleSpeak synthesizes the record's summary for hands-free review and
// returns raw PCM16 at the playback rate.
func (g *Gateway) handleSpeak(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.store.GetRecord(r.PathValue("id"))
	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	pcm, err := g.speech.Speak(r.Context(), rec.Summary)
	if err != nil {
		g.logger.Warn().Err(err).Str("record_id", rec.ID).Msg("Summary playback failed")
		http.Error(w, "speech synthesis failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "audio/pcm;rate=24000")
	w.Write(pcm)
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.store.Stats())
}

func (g *Gateway) handleListPatients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.store.Patients())
}

func (g *Gateway) handleUpsertPatient(w http.ResponseWriter, r *http.Request) {
	var p store.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid patient payload", http.StatusBadRequest)
		return
	}
	if p.ID == "" || p.Name == "" {
		http.Error(w, "patient id and name are required", http.StatusBadRequest)
		return
	}
	g.store.UpsertPatient(p)
	writeJSON(w, http.StatusOK, p)
}

const maxNoteBytes = 32 << 20

// handleTranscribeNote accepts a base64-encoded PCM16 voice note and
// returns its transcript.
func (g *Gateway) handleTranscribeNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Audio string `json:"audio"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxNoteBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	pcm, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		http.Error(w, "invalid audio encoding", http.StatusBadRequest)
		return
	}

	text, err := g.transcriber.TranscribeNote(r.Context(), pcm)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, config.ErrMissingCredential) {
			status = http.StatusServiceUnavailable
		}
		g.logger.Warn().Err(err).Msg("Voice note transcription failed")
		http.Error(w, "transcription failed", status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Package summary turns a consultation transcript into a clinical summary
// by calling the hosted text generation service.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepakbalivada04/MediConvo/internal/config"
	"github.com/deepakbalivada04/MediConvo/internal/live"
	"github.com/deepakbalivada04/MediConvo/internal/observability"
)

// DefaultBaseURL is the REST endpoint of the hosted generation service.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrGeneration wraps any failure to produce a summary. Callers fall back
// to saving the record with an empty summary; the transcript is never lost.
var ErrGeneration = errors.New("summary generation failed")

const summaryPrompt = `You are a clinical scribe. Below is the transcript of a doctor-patient consultation conducted through a live interpreter. Write a concise clinical summary of the consultation in English.

Include any vital signs that were mentioned (blood pressure, pulse, SpO2, height, weight) using their stated values. If any medication was prescribed, end the summary with a section that starts exactly with "Medication:" followed by the medicines, dosages and durations. Do not invent findings that are not in the transcript.

Transcript:
%s`

// Client calls the text generation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// Option customizes client construction.
type Option func(*Client)

// WithBaseURL points the client at a different service endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// NewClient builds a summary client from service configuration.
func NewClient(cfg *config.Config, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiSummaryModel,
		logger:     logger,
		metrics:    observability.NewSessionMetrics(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate produces a clinical summary for the given ordered transcript.
// One attempt only; a failure is returned to the caller to handle.
func (c *Client) Generate(ctx context.Context, transcript []live.ChatMessage) (string, error) {
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: empty transcript", ErrGeneration)
	}

	c.metrics.RecordSummaryStart()
	start := time.Now()

	prompt := fmt.Sprintf(summaryPrompt, FormatTranscript(transcript))
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: encode request: %v", ErrGeneration, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: build request: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: decode response: %v", ErrGeneration, err)
	}

	text := firstText(decoded)
	if text == "" {
		c.metrics.RecordSummaryEnd(false)
		return "", fmt.Errorf("%w: no candidates returned", ErrGeneration)
	}

	c.metrics.RecordSummaryEnd(true)
	c.logger.Info().Dur("latency", time.Since(start)).Int("turns", len(transcript)).Msg("Summary generated")
	return strings.TrimSpace(text), nil
}

// FormatTranscript renders the transcript in session order, one line per
// committed message.
func FormatTranscript(transcript []live.ChatMessage) string {
	var b strings.Builder
	for _, msg := range transcript {
		label := "Speaker"
		switch msg.Role {
		case live.RoleUser:
			label = "Spoken"
		case live.RoleModel:
			label = "Interpreted"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, msg.Text)
	}
	return b.String()
}

func firstText(resp generateResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

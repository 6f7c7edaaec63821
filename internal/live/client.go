package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/deepakbalivada04/MediConvo/internal/audio"
)

// DefaultEndpoint is the bidirectional streaming endpoint of the hosted
// translation service.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// ErrTransport wraps mid-session connectivity failures. Terminal for the
// current session; never auto-retried.
var ErrTransport = errors.New("live transport error")

// Transport is the session's view of the upstream connection.
type Transport interface {
	// SendAudio ships one encoded capture frame upstream.
	SendAudio(blob audio.Blob) error

	// Events returns the inbound server event stream. The channel is closed
	// when the connection ends; Err distinguishes clean close from failure.
	Events() <-chan ServerMessage

	// Err reports the terminal transport error, if any, after Events closes.
	Err() error

	// Close tears the connection down. Idempotent.
	Close() error
}

// DialOptions configures a live connection.
type DialOptions struct {
	Endpoint          string // defaults to DefaultEndpoint
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
}

// Client is a websocket Transport speaking the bidirectional wire protocol.
type Client struct {
	conn   *websocket.Conn
	events chan ServerMessage

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error

	errMu sync.Mutex
	err   error
}

// Dial opens the websocket, sends the setup message and starts the read
// loop. The returned client is live immediately; the setupComplete ack
// arrives as the first server event.
func Dial(ctx context.Context, opts DialOptions) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	url := fmt.Sprintf("%s?key=%s", endpoint, opts.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %v", ErrTransport, err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan ServerMessage, 64),
	}

	setup := ClientMessage{
		Setup: &Setup{
			Model: "models/" + opts.Model,
			GenerationConfig: &GenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &SpeechConfig{
					VoiceConfig: &VoiceConfig{
						PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: opts.Voice},
					},
				},
			},
			SystemInstruction: &Content{
				Parts: []Part{{Text: opts.SystemInstruction}},
			},
			InputAudioTranscription:  &AudioTranscriptionConfig{},
			OutputAudioTranscription: &AudioTranscriptionConfig{},
		},
	}
	if err := c.writeJSON(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: setup failed: %v", ErrTransport, err)
	}

	go c.readLoop()

	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var msg ServerMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			c.errMu.Lock()
			c.err = fmt.Errorf("%w: %v", ErrTransport, err)
			c.errMu.Unlock()
			return
		}
		c.events <- msg
	}
}

// SendAudio ships one encoded capture frame upstream.
func (c *Client) SendAudio(blob audio.Blob) error {
	msg := ClientMessage{RealtimeInput: &RealtimeInput{Audio: &blob}}
	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("%w: send audio: %v", ErrTransport, err)
	}
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Events returns the inbound server event stream.
func (c *Client) Events() <-chan ServerMessage {
	return c.events
}

// Err reports the terminal transport error, if any.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close tears the connection down. Safe to call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		// Best effort: a normal-closure frame lets the service flush.
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

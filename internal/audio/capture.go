package audio

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPermissionDenied is returned when the platform refuses microphone
	// access.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrDeviceUnavailable is returned when no capture device is present.
	ErrDeviceUnavailable = errors.New("no audio input device available")
)

// CaptureSource produces a live, non-restartable stream of fixed-size PCM
// frames at a fixed sample rate. Stop must be safe to call multiple times
// and from error paths.
type CaptureSource interface {
	// Start begins capture and returns the frame stream. The stream is
	// closed when capture stops or the context is cancelled.
	Start(ctx context.Context) (<-chan []int16, error)

	// SampleRate reports the fixed rate of produced frames.
	SampleRate() int

	// Stop halts capture and closes the frame stream. Idempotent.
	Stop()
}

// ChannelSource is a CaptureSource fed by an external producer. The gateway
// uses it to adapt microphone frames pushed over the client websocket; tests
// use it as a scriptable fake.
type ChannelSource struct {
	rate    int
	mu      sync.Mutex
	frames  chan []int16
	started bool
	stopped bool
}

// NewChannelSource creates a channel-backed capture source at the given
// sample rate.
func NewChannelSource(sampleRate int) *ChannelSource {
	return &ChannelSource{
		rate:   sampleRate,
		frames: make(chan []int16, 32),
	}
}

// Start begins capture. A source cannot be restarted once stopped.
func (c *ChannelSource) Start(ctx context.Context) (<-chan []int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil, ErrDeviceUnavailable
	}
	if c.started {
		return nil, errors.New("capture already started")
	}
	c.started = true

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return c.frames, nil
}

// SampleRate reports the fixed rate of produced frames.
func (c *ChannelSource) SampleRate() int {
	return c.rate
}

// Push feeds one frame into the stream. Frames pushed after Stop, or while
// the buffer is full, are dropped; capture never blocks the caller.
func (c *ChannelSource) Push(frame []int16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	select {
	case c.frames <- frame:
	default:
	}
}

// Stop halts capture and closes the frame stream. Safe to call repeatedly.
func (c *ChannelSource) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	close(c.frames)
}

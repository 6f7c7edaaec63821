package audio

import (
	"sync"
	"time"
)

// Sink receives scheduled audio for device output.
type Sink interface {
	// Play emits one decoded PCM buffer. Called at most once per scheduled
	// buffer, in schedule order.
	Play(pcm []byte)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(pcm []byte)

// Play implements Sink.
func (f SinkFunc) Play(pcm []byte) { f(pcm) }

// Scheduler queues decoded audio buffers for gapless, non-overlapping
// sequential playback. Each buffer starts at max(now, end of the previous
// buffer) and removes itself from the pending set on completion.
//
// Admission and completion run from different goroutines, so the pending
// set is mutex-serialised.
type Scheduler struct {
	sink       Sink
	sampleRate int

	mu        sync.Mutex
	nextStart time.Time
	pending   map[uint64]*time.Timer
	nextID    uint64

	// Injected for tests.
	now   func() time.Time
	after func(d time.Duration, f func()) *time.Timer
}

// NewScheduler creates a playback scheduler emitting PCM16 mono audio at the
// given sample rate into sink.
func NewScheduler(sink Sink, sampleRate int) *Scheduler {
	return &Scheduler{
		sink:       sink,
		sampleRate: sampleRate,
		pending:    make(map[uint64]*time.Timer),
		now:        time.Now,
		after:      time.AfterFunc,
	}
}

// BufferDuration reports the playback duration of a PCM16 mono buffer.
func BufferDuration(pcm []byte, sampleRate int) time.Duration {
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// Schedule enqueues one decoded buffer and returns its effective start time:
// the earliest non-overlapping instant that is >= now and >= the end of the
// previously scheduled buffer.
func (s *Scheduler) Schedule(pcm []byte) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := s.nextStart
	if start.Before(now) {
		start = now
	}
	duration := BufferDuration(pcm, s.sampleRate)
	s.nextStart = start.Add(duration)

	id := s.nextID
	s.nextID++

	buf := pcm
	timer := s.after(start.Sub(now), func() {
		s.sink.Play(buf)

		s.mu.Lock()
		done := s.after(duration, func() {
			s.mu.Lock()
			delete(s.pending, id)
			s.mu.Unlock()
		})
		// Stopped between Play and re-arm: discard immediately.
		if _, ok := s.pending[id]; !ok {
			done.Stop()
		} else {
			s.pending[id] = done
		}
		s.mu.Unlock()
	})
	s.pending[id] = timer

	return start
}

// Pending reports the number of buffers scheduled but not yet completed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StopAll forcibly halts and discards all pending and playing buffers.
// Safe to call multiple times and from error paths. The start cursor is
// left untouched; it is monotonic for the life of the scheduler.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.pending {
		if timer != nil {
			timer.Stop()
		}
		delete(s.pending, id)
	}
}

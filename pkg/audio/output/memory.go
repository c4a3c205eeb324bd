// ABOUTME: In-memory output backend driven by the caller
// ABOUTME: Used by tests to pull blocks synchronously and inject device failures
package output

import (
	"fmt"
	"sync"
)

// Memory is a Device whose active stream is advanced by Pull. Close on a
// stream waits for a Pull in progress, like a real backend's callback detach.
type Memory struct {
	mu       sync.Mutex
	stream   *MemoryStream
	openErr  error
	startErr error
	opens    int
	closes   int
	closed   bool

	// SampleRate and Channels of the most recent Open
	SampleRate int
	Channels   int
}

// NewMemory creates an in-memory device
func NewMemory() *Memory {
	return &Memory{}
}

// FailOpen makes subsequent Open calls fail with err wrapped in ErrDevice.
// A nil err clears the failure.
func (m *Memory) FailOpen(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// FailStart makes subsequent Stream.Start calls fail
func (m *Memory) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// Open records the request and returns an unstarted stream
func (m *Memory) Open(sampleRate, channels int, cb Callback) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.openErr != nil {
		return nil, deviceErr("memory open", m.openErr)
	}
	if sampleRate <= 0 || channels < 1 {
		return nil, deviceErr("memory open", fmt.Errorf("invalid format %dHz/%dch", sampleRate, channels))
	}

	m.opens++
	m.SampleRate = sampleRate
	m.Channels = channels
	s := &MemoryStream{dev: m, feeder: newFeeder(cb), channels: channels}
	m.stream = s
	return s, nil
}

// Close marks the device closed
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Opens returns how many streams have been opened
func (m *Memory) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Closes returns how many streams have been closed
func (m *Memory) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Active reports whether a started stream is attached
func (m *Memory) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil && m.stream.started && !m.stream.closed
}

// Closed reports whether Close was called on the device
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pull invokes the active stream's callback with a fresh block of frames.
// Without an active stream it returns silence and false.
func (m *Memory) Pull(frames int) ([]float32, bool) {
	m.mu.Lock()
	s := m.stream
	m.mu.Unlock()

	if s == nil {
		return make([]float32, frames), false
	}
	out := make([]float32, frames*s.channels)
	return out, s.Pull(out)
}

// MemoryStream is a Stream opened on a Memory device
type MemoryStream struct {
	*feeder
	dev      *Memory
	channels int

	// held for reading by Pull, for writing by Close
	running sync.RWMutex
	started bool
	closed  bool
}

// Start enables Pull
func (s *MemoryStream) Start() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.dev.startErr != nil {
		return deviceErr("memory start", s.dev.startErr)
	}
	s.started = true
	return nil
}

// Pull fills out from the callback if the stream is running
func (s *MemoryStream) Pull(out []float32) bool {
	s.running.RLock()
	defer s.running.RUnlock()

	s.dev.mu.Lock()
	live := s.started && !s.closed
	s.dev.mu.Unlock()

	if !live {
		clear(out)
		return false
	}
	return s.fill(out)
}

// Close detaches the callback after any Pull in progress returns
func (s *MemoryStream) Close() error {
	s.detach()
	s.running.Lock()
	defer s.running.Unlock()

	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.closes++
	if s.dev.stream == s {
		s.dev.stream = nil
	}
	return nil
}

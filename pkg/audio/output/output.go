// ABOUTME: Audio output interface definition
// ABOUTME: Common Device/Stream contract and backend factory
package output

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ErrDevice wraps every failure reported by an output backend
var ErrDevice = errors.New("audio device error")

// DefaultBlockFrames is the block size used when none is configured
const DefaultBlockFrames = 512

// Callback fills out with interleaved samples. It runs on the backend's
// real-time thread and must not block. Returning false reports that the
// producer has nothing more to play; out must still be fully written.
type Callback func(out []float32) bool

// Device opens streams on an audio output
type Device interface {
	// Open prepares a stream that will pull from cb once started
	Open(sampleRate, channels int, cb Callback) (Stream, error)

	// Close releases the device
	Close() error
}

// Stream is one open output stream
type Stream interface {
	// Start begins invoking the callback
	Start() error

	// Close stops the stream. No callback invocation is running or
	// will run once Close returns.
	Close() error
}

// Names lists the backends accepted by New
func Names() []string {
	return []string{"malgo", "oto", "portaudio", "null"}
}

// New creates a backend by name. blockFrames is a hint for the period
// size; backends may deliver other sizes.
func New(name string, blockFrames int) (Device, error) {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	switch strings.ToLower(name) {
	case "", "malgo":
		return NewMalgo(blockFrames), nil
	case "oto":
		return NewOto(blockFrames), nil
	case "portaudio":
		return NewPortAudio(blockFrames), nil
	case "null":
		return NewNull(blockFrames), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (available: %s)",
			ErrDevice, name, strings.Join(Names(), ", "))
	}
}

// feeder forwards to a callback until detached
type feeder struct {
	cb atomic.Pointer[Callback]
}

func newFeeder(cb Callback) *feeder {
	f := &feeder{}
	f.cb.Store(&cb)
	return f
}

func (f *feeder) fill(out []float32) bool {
	cb := f.cb.Load()
	if cb == nil {
		clear(out)
		return false
	}
	return (*cb)(out)
}

func (f *feeder) detach() {
	f.cb.Store(nil)
}

func deviceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDevice, op, err)
}

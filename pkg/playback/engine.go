// ABOUTME: Playback engine driving an output stream from a sample buffer
// ABOUTME: Lock-free Fill callback plus mutex-serialized Start/Stop control
package playback

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/audio/output"
)

// Config holds engine configuration
type Config struct {
	// Device opens the output streams
	Device output.Device

	// OnStateChange is called after every transition, never from Fill
	OnStateChange func(Status)

	// OnError is called for failures on the background completion path
	OnError func(error)

	// Logger defaults to log.Default()
	Logger *log.Logger
}

// StartOptions control a single playback session
type StartOptions struct {
	Loop bool

	// Offset is the buffer-local first frame, used when HasOffset is set
	Offset    int
	HasOffset bool

	VolumeDB float64
}

// Engine plays one buffer at a time. Control methods may be called from
// any goroutine; Fill is called by the output backend.
type Engine struct {
	cfg    Config
	logger *log.Logger

	// mu serializes Start, Stop and the completion watcher. Fill never takes it.
	mu sync.Mutex

	current  atomic.Pointer[session]
	gain     atomic.Uint64 // math.Float64bits of the linear gain
	volumeDB atomic.Uint64 // math.Float64bits of the decibel value
	inFill   atomic.Int32

	// fillDone wakes waitFill when the last in-flight Fill returns.
	// Fill only sends while waiting is set, and never blocks.
	waiting  atomic.Bool
	fillDone chan struct{}
}

// session is the runtime state of one Start call
type session struct {
	buf      *audio.Buffer
	samples  []float32
	channels int
	frames   int64
	loop     bool

	state  atomic.Int32
	cursor atomic.Int64

	drained     chan struct{}
	drainClosed atomic.Bool

	stream    output.Stream
	closeOnce sync.Once
	closeErr  error
}

func (s *session) markDrained() {
	if s.drainClosed.CompareAndSwap(false, true) {
		close(s.drained)
	}
}

func (s *session) closeStream() error {
	s.closeOnce.Do(func() {
		if s.stream != nil {
			s.closeErr = s.stream.Close()
		}
	})
	return s.closeErr
}

// NewEngine creates an idle engine
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{cfg: cfg, logger: logger, fillDone: make(chan struct{}, 1)}
	e.storeVolume(0)
	return e
}

func (e *Engine) storeVolume(db float64) {
	e.volumeDB.Store(math.Float64bits(db))
	e.gain.Store(math.Float64bits(audio.GainFromDB(db)))
}

func validVolume(db float64) error {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return fmt.Errorf("%w: %v dB", ErrInvalidVolume, db)
	}
	return nil
}

// Start stops any current session and plays buf. Arguments are validated
// before anything changes: an empty buffer yields audio.ErrEmptySelection,
// a bad offset ErrOffsetOutOfRange and a non-finite volume ErrInvalidVolume.
// Device failures match output.ErrDevice and leave the engine Idle.
func (e *Engine) Start(buf *audio.Buffer, opts StartOptions) error {
	if buf == nil || buf.Frames() == 0 {
		return audio.ErrEmptySelection
	}
	if err := buf.Format.Validate(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	frames := buf.Frames()
	offset := 0
	if opts.HasOffset {
		if opts.Offset < 0 || opts.Offset > frames {
			return fmt.Errorf("%w: %d not in [0, %d]", ErrOffsetOutOfRange, opts.Offset, frames)
		}
		offset = opts.Offset
	}
	if err := validVolume(opts.VolumeDB); err != nil {
		return err
	}

	e.mu.Lock()
	stopped := e.stopLocked()

	e.storeVolume(opts.VolumeDB)

	s := &session{
		buf:      buf,
		samples:  buf.Samples,
		channels: buf.Format.Channels,
		frames:   int64(frames),
		loop:     opts.Loop,
		drained:  make(chan struct{}),
	}
	s.cursor.Store(int64(offset))
	if opts.Loop {
		s.state.Store(int32(Looping))
	} else {
		s.state.Store(int32(Playing))
	}

	stream, err := e.cfg.Device.Open(buf.Format.SampleRate, buf.Format.Channels, e.Fill)
	if err != nil {
		e.mu.Unlock()
		e.notifyStopped(stopped)
		return fmt.Errorf("start playback: %w", asDeviceErr(err))
	}
	s.stream = stream

	e.current.Store(s)
	if err := stream.Start(); err != nil {
		e.current.Store(nil)
		if closeErr := s.closeStream(); closeErr != nil {
			e.logger.Warn("stream close after failed start", "err", closeErr)
		}
		e.waitFill()
		e.mu.Unlock()
		e.notifyStopped(stopped)
		return fmt.Errorf("start playback: %w", asDeviceErr(err))
	}

	go e.watch(s)
	status := e.statusOf(s)
	e.mu.Unlock()

	e.logger.Debug("playback started",
		"state", status.State,
		"start", buf.Start,
		"end", buf.End(),
		"offset", offset,
		"volume_db", opts.VolumeDB)

	e.notifyStopped(stopped)
	e.notify(status)
	return nil
}

func asDeviceErr(err error) error {
	if errors.Is(err, output.ErrDevice) {
		return err
	}
	return fmt.Errorf("%w: %w", output.ErrDevice, err)
}

// Stop ends the current session. It is idempotent and safe to call while
// Fill runs: when it returns no Fill call is reading the old buffer.
func (e *Engine) Stop() {
	e.mu.Lock()
	stopped := e.stopLocked()
	e.mu.Unlock()

	e.notifyStopped(stopped)
}

// stopLocked tears down the current session. Callers must hold e.mu.
func (e *Engine) stopLocked() *session {
	s := e.current.Load()
	if s == nil {
		return nil
	}

	s.state.Store(int32(Stopping))
	e.current.Store(nil)
	if err := s.closeStream(); err != nil {
		e.logger.Warn("stream close failed", "err", err)
	}
	e.waitFill()
	s.state.Store(int32(Idle))

	// releases the watcher
	s.markDrained()
	return s
}

// waitFill blocks until no Fill call is in flight. Callers hold e.mu, so
// there is at most one waiter.
func (e *Engine) waitFill() {
	e.waiting.Store(true)
	defer e.waiting.Store(false)
	for e.inFill.Load() > 0 {
		<-e.fillDone
	}
}

// exitFill leaves Fill and wakes a waiting stopper if this was the last call
func (e *Engine) exitFill() {
	if e.inFill.Add(-1) == 0 && e.waiting.Load() {
		select {
		case e.fillDone <- struct{}{}:
		default:
		}
	}
}

// watch tears the stream down after a non-looping session drains
func (e *Engine) watch(s *session) {
	<-s.drained

	e.mu.Lock()
	if e.current.Load() != s {
		// stopped or superseded
		e.mu.Unlock()
		return
	}
	e.current.Store(nil)
	err := s.closeStream()
	e.waitFill()
	s.state.Store(int32(Idle))
	status := e.statusOf(s)
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("stream close after completion failed", "err", err)
		if e.cfg.OnError != nil {
			e.cfg.OnError(err)
		}
	}
	e.logger.Debug("playback completed", "position", status.Position)
	e.notify(status)
}

// Fill writes the next block into out and reports whether the session is
// still producing audio. It never blocks, allocates or logs.
func (e *Engine) Fill(out []float32) bool {
	e.inFill.Add(1)
	defer e.exitFill()

	s := e.current.Load()
	if s == nil {
		clear(out)
		return false
	}

	cursor := s.cursor.Load()
	state := State(s.state.Load())
	if state == Stopping || state == Idle || (!s.loop && cursor >= s.frames) {
		clear(out)
		s.markDrained()
		return false
	}

	ch := s.channels
	frames := len(out) / ch
	gain := float32(math.Float64frombits(e.gain.Load()))

	written := 0
	for written < frames {
		remaining := s.frames - cursor
		if remaining <= 0 {
			if !s.loop {
				break
			}
			cursor = 0
			continue
		}
		n := min(int64(frames-written), remaining)
		src := s.samples[cursor*int64(ch) : (cursor+n)*int64(ch)]
		dst := out[written*ch:]
		for i, v := range src {
			dst[i] = audio.Clamp(v * gain)
		}
		written += int(n)
		cursor += n
	}
	clear(out[written*ch:])

	if cursor >= s.frames {
		if s.loop {
			cursor = 0
		} else {
			s.state.CompareAndSwap(int32(Playing), int32(Idle))
		}
	}
	s.cursor.Store(cursor)
	return true
}

// SetVolume changes the gain from the next block on
func (e *Engine) SetVolume(db float64) error {
	if err := validVolume(db); err != nil {
		return err
	}
	e.storeVolume(db)
	return nil
}

// VolumeDB returns the current volume
func (e *Engine) VolumeDB() float64 {
	return math.Float64frombits(e.volumeDB.Load())
}

// State returns the current state
func (e *Engine) State() State {
	s := e.current.Load()
	if s == nil {
		return Idle
	}
	return State(s.state.Load())
}

// Status returns a snapshot of the current session
func (e *Engine) Status() Status {
	return e.statusOf(e.current.Load())
}

func (e *Engine) statusOf(s *session) Status {
	st := Status{VolumeDB: e.VolumeDB()}
	if s == nil {
		return st
	}
	st.State = State(s.state.Load())
	st.Loop = s.loop
	st.Start = s.buf.Start
	st.End = s.buf.End()
	st.Position = s.buf.Start + int(s.cursor.Load())
	st.SampleRate = s.buf.Format.SampleRate
	st.Channels = s.channels
	return st
}

// Close stops playback and closes the device
func (e *Engine) Close() error {
	e.Stop()
	if err := e.cfg.Device.Close(); err != nil {
		return fmt.Errorf("close device: %w", asDeviceErr(err))
	}
	return nil
}

func (e *Engine) notifyStopped(s *session) {
	if s == nil {
		return
	}
	e.logger.Debug("playback stopped", "position", s.buf.Start+int(s.cursor.Load()))
	e.notify(e.statusOf(s))
}

func (e *Engine) notify(status Status) {
	if e.cfg.OnStateChange != nil {
		e.cfg.OnStateChange(status)
	}
}

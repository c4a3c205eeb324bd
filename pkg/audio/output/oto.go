// ABOUTME: Oto-based audio output implementation
// ABOUTME: Adapts the pull callback to oto's io.Reader player
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

// Oto output implementation using oto library. The first Open fixes the
// context format; later opens at another format fail.
type Oto struct {
	blockFrames int
}

// NewOto creates a new Oto output
func NewOto(blockFrames int) *Oto {
	return &Oto{blockFrames: blockFrames}
}

func (o *Oto) context(sampleRate, channels int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != sampleRate || otoChannels != channels {
			return nil, fmt.Errorf("%w: oto context fixed at %dHz/%dch, requested %dHz/%dch",
				ErrDevice, otoRate, otoChannels, sampleRate, channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(o.blockFrames) * time.Second / time.Duration(sampleRate),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, deviceErr("create oto context", err)
	}
	<-readyChan

	otoCtx = ctx
	otoRate = sampleRate
	otoChannels = channels
	log.Debug("oto context created", "rate", sampleRate, "channels", channels)
	return ctx, nil
}

// Open creates a player reading from cb
func (o *Oto) Open(sampleRate, channels int, cb Callback) (Stream, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, deviceErr("oto open", fmt.Errorf("invalid format %dHz/%dch", sampleRate, channels))
	}
	ctx, err := o.context(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	r := &otoReader{
		feeder:   newFeeder(cb),
		channels: channels,
		scratch:  make([]float32, o.blockFrames*channels),
	}
	return &otoStream{reader: r, player: ctx.NewPlayer(r)}, nil
}

// Close is a no-op; the process-wide context stays alive
func (o *Oto) Close() error {
	return nil
}

// otoReader turns callback blocks into little-endian float32 bytes
type otoReader struct {
	*feeder
	channels int
	scratch  []float32
	mu       sync.Mutex
	done     atomic.Bool
}

func (r *otoReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done.Load() {
		return 0, io.EOF
	}

	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	n := frames * r.channels
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]

	if !r.fill(samples) {
		r.done.Store(true)
	}
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * frameBytes, nil
}

type otoStream struct {
	reader *otoReader
	player *oto.Player
	once   sync.Once
}

func (s *otoStream) Start() error {
	s.player.Play()
	if err := s.player.Err(); err != nil {
		return deviceErr("oto play", err)
	}
	return nil
}

// Close detaches the callback and waits for a running Read to return
func (s *otoStream) Close() error {
	var err error
	s.once.Do(func() {
		s.reader.detach()
		s.reader.mu.Lock()
		s.reader.done.Store(true)
		s.reader.mu.Unlock()
		if closeErr := s.player.Close(); closeErr != nil {
			err = deviceErr("oto close", closeErr)
		}
	})
	return err
}

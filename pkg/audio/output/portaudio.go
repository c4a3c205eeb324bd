//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform callback streams using PortAudio
package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	blockFrames int

	mu          sync.Mutex
	initialized bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(blockFrames int) *PortAudio {
	return &PortAudio{blockFrames: blockFrames}
}

// Open initializes PortAudio on first use and opens a default stream
func (p *PortAudio) Open(sampleRate, channels int, cb Callback) (Stream, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, deviceErr("portaudio open", fmt.Errorf("invalid format %dHz/%dch", sampleRate, channels))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		if err := portaudio.Initialize(); err != nil {
			return nil, deviceErr("initialize portaudio", err)
		}
		p.initialized = true
	}

	f := newFeeder(cb)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), p.blockFrames, func(out []float32) {
		f.fill(out)
	})
	if err != nil {
		return nil, deviceErr("open stream", err)
	}

	log.Debug("portaudio stream opened", "rate", sampleRate, "channels", channels)
	return &portAudioStream{feeder: f, stream: stream}, nil
}

// Close terminates PortAudio
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	p.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return deviceErr("terminate portaudio", err)
	}
	return nil
}

type portAudioStream struct {
	*feeder
	stream *portaudio.Stream
	once   sync.Once
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return deviceErr("start stream", err)
	}
	return nil
}

// Close aborts the stream, which returns after the callback has finished
func (s *portAudioStream) Close() error {
	var errs []error
	s.once.Do(func() {
		s.detach()
		if err := s.stream.Abort(); err != nil && !errors.Is(err, portaudio.StreamIsStopped) {
			errs = append(errs, deviceErr("abort stream", err))
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, deviceErr("close stream", err))
		}
	})
	return errors.Join(errs...)
}

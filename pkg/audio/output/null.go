// ABOUTME: Null output backend that discards audio at real-time pace
// ABOUTME: Lets headless runs and CI exercise playback without a sound card
package output

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Null pulls blocks on a ticker and throws them away
type Null struct {
	blockFrames int
}

// NewNull creates a Null output
func NewNull(blockFrames int) *Null {
	return &Null{blockFrames: blockFrames}
}

// Open returns a stream that ticks once per block period after Start
func (n *Null) Open(sampleRate, channels int, cb Callback) (Stream, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, deviceErr("null open", fmt.Errorf("invalid format %dHz/%dch", sampleRate, channels))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &nullStream{
		feeder: newFeeder(cb),
		period: time.Duration(n.blockFrames) * time.Second / time.Duration(sampleRate),
		block:  make([]float32, n.blockFrames*channels),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Close is a no-op
func (n *Null) Close() error { return nil }

type nullStream struct {
	*feeder
	period time.Duration
	block  []float32

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	started   bool
	mu        sync.Mutex
}

func (s *nullStream) Start() error {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		go s.run()
	})
	return nil
}

func (s *nullStream) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fill(s.block)
		}
	}
}

// Close stops the ticker goroutine and waits for it to exit
func (s *nullStream) Close() error {
	s.detach()
	s.cancel()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	return nil
}

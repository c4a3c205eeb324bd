// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with a float32 data callback
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	blockFrames int

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
}

// NewMalgo creates a new Malgo output
func NewMalgo(blockFrames int) *Malgo {
	return &Malgo{blockFrames: blockFrames}
}

// Open initializes a playback device in f32 format
func (m *Malgo) Open(sampleRate, channels int, cb Callback) (Stream, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, deviceErr("malgo open", fmt.Errorf("invalid format %dHz/%dch", sampleRate, channels))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return nil, deviceErr("init malgo context", err)
		}
		m.malgoCtx = ctx
	}

	s := &malgoStream{
		feeder:   newFeeder(cb),
		channels: channels,
		scratch:  make([]float32, m.blockFrames*channels),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(m.blockFrames)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, _ []byte, frameCount uint32) {
			s.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return nil, deviceErr("init playback device", err)
	}
	s.device = device

	log.Debug("malgo stream opened", "rate", sampleRate, "channels", channels, "period", m.blockFrames)
	return s, nil
}

// Close releases the malgo context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		return nil
	}
	var errs []error
	if err := m.malgoCtx.Uninit(); err != nil {
		errs = append(errs, deviceErr("uninit malgo context", err))
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
	return errors.Join(errs...)
}

type malgoStream struct {
	*feeder
	device   *malgo.Device
	channels int
	scratch  []float32
	once     sync.Once
}

// dataCallback is called by malgo to fill the audio output buffer
func (s *malgoStream) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount) * s.channels
	if cap(s.scratch) < n {
		// only when the backend delivers a larger period than requested
		s.scratch = make([]float32, n)
	}
	samples := s.scratch[:n]

	s.fill(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(v))
	}
}

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return deviceErr("start device", err)
	}
	return nil
}

// Close stops the device; miniaudio waits for the running callback
func (s *malgoStream) Close() error {
	var err error
	s.once.Do(func() {
		s.detach()
		if stopErr := s.device.Stop(); stopErr != nil {
			err = deviceErr("stop device", stopErr)
		}
		s.device.Uninit()
	})
	return err
}

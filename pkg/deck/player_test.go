// ABOUTME: Tests for the deck player
// ABOUTME: Selection, marker, volume and export behavior over a memory device
package deck

import (
	"errors"
	"io"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/internal/audiotest"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/audio/decode"
	"github.com/harperreed/wavdeck/pkg/audio/output"
	"github.com/harperreed/wavdeck/pkg/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T, cfg Config) (*Player, *output.Memory) {
	t.Helper()
	dev := output.NewMemory()
	cfg.Device = dev
	cfg.Logger = log.New(io.Discard)
	p, err := NewPlayer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, dev
}

// rampTrack is 1000 Hz mono, so one frame per millisecond
func rampTrack(t *testing.T, frames int) *audio.Track {
	t.Helper()
	track, err := audio.NewTrack(audio.Format{Codec: "wav", SampleRate: 1000, Channels: 1, BitDepth: 16},
		audiotest.Ramp(1, frames))
	require.NoError(t, err)
	return track
}

func TestNewPlayerRequiresDevice(t *testing.T) {
	_, err := NewPlayer(Config{})
	assert.ErrorIs(t, err, output.ErrDevice)

	_, err = NewPlayer(Config{Device: output.NewMemory(), ExportBitDepth: 8})
	assert.Error(t, err)
}

func TestOperationsWithoutTrack(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})

	assert.ErrorIs(t, p.Play(), ErrNoTrack)
	assert.ErrorIs(t, p.Loop(), ErrNoTrack)
	assert.ErrorIs(t, p.Export(filepath.Join(t.TempDir(), "x.wav")), ErrNoTrack)
	_, err := p.Select(0, 100)
	assert.ErrorIs(t, err, ErrNoTrack)
	_, err = p.SetMarker(10)
	assert.ErrorIs(t, err, ErrNoTrack)
	assert.ErrorIs(t, p.LoadTrack(nil, "nil"), ErrNoTrack)

	assert.False(t, p.Status().Loaded)
	assert.Equal(t, 0, dev.Opens())
}

func TestLoadTrackSelectsWhole(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	st := p.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, "ramp", st.Name)
	assert.Equal(t, 2000, st.Frames)
	assert.Equal(t, audio.Selection{Start: 0, End: 2000}, st.Selection)
	assert.False(t, st.HasMarker)
}

func TestSelectClampsInput(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	tests := []struct {
		name         string
		startMs, end float64
		want         audio.Selection
	}{
		{"inside", 250, 750, audio.Selection{Start: 250, End: 750}},
		{"past end", 1500, 9000, audio.Selection{Start: 1500, End: 2000}},
		{"negative start", -100, 10, audio.Selection{Start: 0, End: 10}},
		{"reversed", 800, 200, audio.Selection{Start: 800, End: 800}},
		{"nan", math.NaN(), 300, audio.Selection{Start: 0, End: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := p.Select(tt.startMs, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel)
			assert.Equal(t, tt.want, p.Status().Selection)
		})
	}
}

func TestPlayEmptySelectionRejected(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	_, err := p.Select(500, 500)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Play(), audio.ErrEmptySelection)
	assert.ErrorIs(t, p.Loop(), audio.ErrEmptySelection)
	assert.ErrorIs(t, p.Export(filepath.Join(t.TempDir(), "x.wav")), audio.ErrEmptySelection)
	assert.Equal(t, 0, dev.Opens())
}

func TestPlaySelection(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})
	track := rampTrack(t, 2000)
	require.NoError(t, p.LoadTrack(track, "ramp"))
	_, err := p.Select(100, 300)
	require.NoError(t, err)

	require.NoError(t, p.Play())
	assert.Equal(t, playback.Playing, p.Status().Playback.State)

	out, more := dev.Pull(200)
	assert.True(t, more)
	assert.Equal(t, track.Samples[100:300], out)
	assert.Equal(t, playback.Idle, p.Status().Playback.State)
}

func TestMarkerIsOneShot(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})
	track := rampTrack(t, 2000)
	require.NoError(t, p.LoadTrack(track, "ramp"))
	_, err := p.Select(100, 300)
	require.NoError(t, err)

	frame, err := p.SetMarker(250)
	require.NoError(t, err)
	assert.Equal(t, 250, frame)
	assert.True(t, p.Status().HasMarker)

	require.NoError(t, p.Loop())
	assert.False(t, p.Status().HasMarker, "consumed by Loop")
	assert.Equal(t, 250, p.Status().Playback.Position)

	out, _ := dev.Pull(10)
	assert.Equal(t, track.Samples[250:260], out)

	// the next start ignores the consumed marker
	require.NoError(t, p.Loop())
	assert.Equal(t, 100, p.Status().Playback.Position)
}

func TestMarkerClampedIntoSelection(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	tests := []struct {
		name     string
		markerMs float64
		want     int
	}{
		{"before selection", 50, 100},
		{"after selection", 1500, 300},
		{"past track end", 99999, 300},
		{"inside", 200, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Select(100, 300)
			require.NoError(t, err)
			_, err = p.SetMarker(tt.markerMs)
			require.NoError(t, err)

			require.NoError(t, p.Loop())
			assert.Equal(t, tt.want, p.Status().Playback.Position)
			p.Stop()
		})
	}
}

func TestClearMarker(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	_, err := p.SetMarker(500)
	require.NoError(t, err)
	p.ClearMarker()
	assert.False(t, p.Status().HasMarker)

	require.NoError(t, p.Play())
	assert.Equal(t, 0, p.Status().Playback.Position)
}

func TestMarkerKeptWhenStartFails(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))
	_, err := p.SetMarker(500)
	require.NoError(t, err)

	dev.FailOpen(errors.New("busy"))
	assert.ErrorIs(t, p.Play(), output.ErrDevice)
	assert.True(t, p.Status().HasMarker)
}

// hookDevice runs onOpen inside Open, while the engine is starting
type hookDevice struct {
	*output.Memory
	onOpen func()
}

func (d *hookDevice) Open(sampleRate, channels int, cb output.Callback) (output.Stream, error) {
	if d.onOpen != nil {
		d.onOpen()
	}
	return d.Memory.Open(sampleRate, channels, cb)
}

func newHookedPlayer(t *testing.T) (*Player, *hookDevice) {
	t.Helper()
	dev := &hookDevice{Memory: output.NewMemory()}
	p, err := NewPlayer(Config{Device: dev, Logger: log.New(io.Discard)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, dev
}

func TestMarkerSetDuringStartSurvives(t *testing.T) {
	p, dev := newHookedPlayer(t)
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))
	_, err := p.SetMarker(250)
	require.NoError(t, err)

	dev.onOpen = func() {
		dev.onOpen = nil
		_, err := p.SetMarker(700)
		assert.NoError(t, err)
	}
	require.NoError(t, p.Play())
	assert.Equal(t, 250, p.Status().Playback.Position, "started from the earlier marker")

	st := p.Status()
	require.True(t, st.HasMarker, "the new marker waits for the next start")
	assert.Equal(t, 700, st.Marker)

	require.NoError(t, p.Play())
	assert.Equal(t, 700, p.Status().Playback.Position)
	assert.False(t, p.Status().HasMarker)
}

func TestMarkerClearedDuringStartStaysCleared(t *testing.T) {
	p, dev := newHookedPlayer(t)
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "ramp"))

	dev.onOpen = func() {
		dev.onOpen = nil
		_, err := p.SetMarker(400)
		assert.NoError(t, err)
		p.ClearMarker()
	}
	require.NoError(t, p.Play())
	assert.False(t, p.Status().HasMarker)
}

func TestLoadWaitsForStartInProgress(t *testing.T) {
	p, dev := newHookedPlayer(t)
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "old"))
	next := rampTrack(t, 1000)

	opened := make(chan struct{})
	release := make(chan struct{})
	dev.onOpen = func() {
		dev.onOpen = nil
		close(opened)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.Loop())
	}()
	<-opened

	loaded := make(chan struct{})
	go func() {
		defer wg.Done()
		assert.NoError(t, p.LoadTrack(next, "new"))
		close(loaded)
	}()

	select {
	case <-loaded:
		t.Fatal("load finished while a start was opening the device")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	wg.Wait()

	st := p.Status()
	assert.Equal(t, "new", st.Name)
	assert.Equal(t, playback.Idle, st.Playback.State, "the old track does not outlive the load")
	assert.False(t, dev.Active())
}

func TestLoadClearsMarkerAndStops(t *testing.T) {
	p, dev := newTestPlayer(t, Config{})
	require.NoError(t, p.LoadTrack(rampTrack(t, 2000), "a"))
	_, err := p.SetMarker(500)
	require.NoError(t, err)
	require.NoError(t, p.Loop())
	require.NoError(t, p.LoadTrack(rampTrack(t, 1000), "b"))

	st := p.Status()
	assert.Equal(t, playback.Idle, st.Playback.State)
	assert.False(t, st.HasMarker)
	assert.Equal(t, audio.Selection{Start: 0, End: 1000}, st.Selection)
	assert.Equal(t, 1, dev.Closes())
}

func TestVolumeClamped(t *testing.T) {
	p, dev := newTestPlayer(t, Config{VolumeDB: 20})
	assert.Equal(t, MaxVolumeDB, p.Volume())

	db, err := p.SetVolume(-12)
	require.NoError(t, err)
	assert.Equal(t, MinVolumeDB, db)

	db, err = p.SetVolume(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, db)

	db, err = p.NudgeVolume(VolumeStepDB)
	require.NoError(t, err)
	assert.Equal(t, 3.5, db)

	_, err = p.SetVolume(math.NaN())
	assert.ErrorIs(t, err, playback.ErrInvalidVolume)
	assert.Equal(t, 3.5, p.Volume())

	track, err := audio.NewTrack(audio.Format{SampleRate: 1000, Channels: 1}, audiotest.Constant(1, 100, 0.25))
	require.NoError(t, err)
	require.NoError(t, p.LoadTrack(track, "dc"))
	_, err = p.SetVolume(-6)
	require.NoError(t, err)
	require.NoError(t, p.Play())

	out, _ := dev.Pull(10)
	assert.InDelta(t, 0.25*audio.GainFromDB(-6), out[0], 1e-6)
	assert.Equal(t, -6.0, p.Status().Playback.VolumeDB)
}

func TestExportSelection(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	track := rampTrack(t, 2000)
	require.NoError(t, p.LoadTrack(track, "ramp"))
	_, err := p.Select(500, 1250)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cut.wav")
	require.NoError(t, p.Export(path))

	// decode into a fresh player to check the round trip
	q, _ := newTestPlayer(t, Config{})
	require.NoError(t, q.Load(path))
	st := q.Status()
	assert.Equal(t, "cut.wav", st.Name)
	assert.Equal(t, 750, st.Frames)
	assert.Equal(t, 1000, st.Format.SampleRate)
	assert.Equal(t, 16, st.Format.BitDepth)
}

func TestLoadUnsupported(t *testing.T) {
	p, _ := newTestPlayer(t, Config{})
	err := p.Load("song.xyz")
	assert.ErrorIs(t, err, decode.ErrUnsupportedFormat)
}

func TestLoadResamples(t *testing.T) {
	p, _ := newTestPlayer(t, Config{ResampleTo: 2000})
	require.NoError(t, p.LoadTrack(rampTrack(t, 1000), "ramp"))

	st := p.Status()
	assert.Equal(t, 2000, st.Format.SampleRate)
	assert.Equal(t, 2000, st.Frames)
}

func TestStateChangesReported(t *testing.T) {
	var mu sync.Mutex
	var states []playback.State
	p, dev := newTestPlayer(t, Config{OnStateChange: func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.Playback.State)
	}})
	require.NoError(t, p.LoadTrack(rampTrack(t, 100), "ramp"))
	require.NoError(t, p.Play())
	dev.Pull(100)
	dev.Pull(100)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []playback.State{playback.Idle, playback.Playing, playback.Idle}, states)
}

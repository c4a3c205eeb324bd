// ABOUTME: Player for trim-and-replay of a single track
// ABOUTME: Builds sample buffers from the selection and drives the engine
package deck

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/audio/decode"
	"github.com/harperreed/wavdeck/pkg/audio/encode"
	"github.com/harperreed/wavdeck/pkg/audio/output"
	"github.com/harperreed/wavdeck/pkg/audio/resample"
	"github.com/harperreed/wavdeck/pkg/playback"
)

// ErrNoTrack is returned by operations that need a loaded track
var ErrNoTrack = errors.New("no track loaded")

// Volume limits and default step in dB
const (
	MinVolumeDB  = -6.0
	MaxVolumeDB  = 6.0
	VolumeStepDB = 0.5
)

// Config holds player configuration
type Config struct {
	// Device is the audio output (required)
	Device output.Device

	// Registry resolves file extensions to decoders (default: decode.DefaultRegistry)
	Registry *decode.Registry

	// ResampleTo converts loaded tracks to this rate when non-zero
	ResampleTo int

	// VolumeDB is the initial volume
	VolumeDB float64

	// ExportBitDepth is used by Export (default: 16)
	ExportBitDepth int

	// OnStateChange is called when playback state changes
	OnStateChange func(Status)

	// OnError is called when background errors occur
	OnError func(error)

	// Logger defaults to log.Default()
	Logger *log.Logger
}

// Status describes the loaded track, selection and playback
type Status struct {
	Loaded    bool
	Name      string
	Format    audio.Format
	Frames    int
	Selection audio.Selection
	Marker    int // absolute frame, valid when HasMarker
	HasMarker bool
	VolumeDB  float64
	Playback  playback.Status
}

// Player holds one track and plays selections of it
type Player struct {
	config Config
	logger *log.Logger
	engine *playback.Engine

	// transport serializes starts against track loads
	transport sync.Mutex

	mu        sync.Mutex
	track     *audio.Track
	name      string
	sel       audio.Selection
	marker    int
	hasMarker bool
	markerGen uint64
	volumeDB  float64
}

// NewPlayer creates a player with the given configuration
func NewPlayer(config Config) (*Player, error) {
	if config.Device == nil {
		return nil, fmt.Errorf("%w: no output device configured", output.ErrDevice)
	}
	if config.Registry == nil {
		config.Registry = decode.DefaultRegistry()
	}
	if config.ExportBitDepth == 0 {
		config.ExportBitDepth = 16
	}
	if err := encode.ValidBitDepth(config.ExportBitDepth); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	p := &Player{
		config:   config,
		logger:   config.Logger,
		volumeDB: clampVolume(config.VolumeDB),
	}
	p.engine = playback.NewEngine(playback.Config{
		Device:        config.Device,
		OnStateChange: p.onEngineState,
		OnError:       p.notifyError,
		Logger:        config.Logger,
	})
	return p, nil
}

// Load decodes path and makes it the current track
func (p *Player) Load(path string) error {
	track, err := p.config.Registry.File(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return p.LoadTrack(track, filepath.Base(path))
}

// LoadTrack replaces the current track. Playback stops, the selection
// covers the whole track and the marker is cleared.
func (p *Player) LoadTrack(track *audio.Track, name string) error {
	if track == nil {
		return ErrNoTrack
	}
	if p.config.ResampleTo > 0 && track.Format.SampleRate != p.config.ResampleTo {
		from := track.Format.SampleRate
		resampled, err := resample.Track(track, p.config.ResampleTo)
		if err != nil {
			return fmt.Errorf("resample %s: %w", name, err)
		}
		p.logger.Info("resampled track", "name", name, "from", from, "to", p.config.ResampleTo)
		track = resampled
	}

	p.transport.Lock()
	p.engine.Stop()

	p.mu.Lock()
	p.track = track
	p.name = name
	p.sel = track.Whole()
	p.hasMarker = false
	p.marker = 0
	p.markerGen++
	p.mu.Unlock()
	p.transport.Unlock()

	p.logger.Info("track loaded",
		"name", name,
		"codec", track.Format.Codec,
		"rate", track.Format.SampleRate,
		"channels", track.Format.Channels,
		"duration", track.Duration())
	p.notify()
	return nil
}

// Select sets the selection from millisecond bounds, clamping into the track
func (p *Player) Select(startMs, endMs float64) (audio.Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return audio.Selection{}, ErrNoTrack
	}
	p.sel = p.track.SelectMillis(startMs, endMs)
	return p.sel, nil
}

// SelectFrames sets the selection from frame bounds, clamping into the track
func (p *Player) SelectFrames(start, end int) (audio.Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return audio.Selection{}, ErrNoTrack
	}
	p.sel = p.track.Select(start, end)
	return p.sel, nil
}

// SelectAll selects the whole track
func (p *Player) SelectAll() (audio.Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return audio.Selection{}, ErrNoTrack
	}
	p.sel = p.track.Whole()
	return p.sel, nil
}

// SetMarker places the play-start marker at ms, clamped into the track.
// The next Play or Loop starts there and consumes it.
func (p *Player) SetMarker(ms float64) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return 0, ErrNoTrack
	}
	frame := p.track.Whole().ClampFrame(audio.MillisToFrames(ms, p.track.Format.SampleRate))
	p.marker = frame
	p.hasMarker = true
	p.markerGen++
	return frame, nil
}

// ClearMarker removes the play-start marker
func (p *Player) ClearMarker() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasMarker = false
	p.marker = 0
	p.markerGen++
}

// Play plays the selection once
func (p *Player) Play() error {
	return p.start(false)
}

// Loop plays the selection repeatedly until stopped
func (p *Player) Loop() error {
	return p.start(true)
}

func (p *Player) start(loop bool) error {
	p.transport.Lock()
	defer p.transport.Unlock()

	p.mu.Lock()
	if p.track == nil {
		p.mu.Unlock()
		return ErrNoTrack
	}
	sel := p.sel
	if sel.Empty() {
		p.mu.Unlock()
		return audio.ErrEmptySelection
	}
	buf, err := audio.NewBuffer(p.track, sel)
	if err != nil {
		p.mu.Unlock()
		return err
	}

	opts := playback.StartOptions{Loop: loop, VolumeDB: p.volumeDB}
	hadMarker, gen := p.hasMarker, p.markerGen
	if p.hasMarker {
		// markers outside the selection snap to its edges
		opts.Offset = sel.ClampFrame(p.marker) - sel.Start
		opts.HasOffset = true
	}
	p.mu.Unlock()

	if err := p.engine.Start(buf, opts); err != nil {
		return err
	}

	if hadMarker {
		p.mu.Lock()
		// a marker placed while starting belongs to the next start
		if p.markerGen == gen {
			p.hasMarker = false
		}
		p.mu.Unlock()
	}
	return nil
}

// Stop stops playback
func (p *Player) Stop() {
	p.engine.Stop()
}

// SetVolume sets the volume in dB, clamped to [MinVolumeDB, MaxVolumeDB]
func (p *Player) SetVolume(db float64) (float64, error) {
	if math.IsNaN(db) {
		return p.Volume(), fmt.Errorf("%w: NaN", playback.ErrInvalidVolume)
	}
	db = clampVolume(db)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.engine.SetVolume(db); err != nil {
		return p.volumeDB, err
	}
	p.volumeDB = db
	return db, nil
}

// NudgeVolume changes the volume by step dB
func (p *Player) NudgeVolume(step float64) (float64, error) {
	return p.SetVolume(p.Volume() + step)
}

// Volume returns the current volume in dB
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volumeDB
}

// Export writes the current selection to path as PCM WAV
func (p *Player) Export(path string) error {
	p.mu.Lock()
	track, sel := p.track, p.sel
	p.mu.Unlock()

	if track == nil {
		return ErrNoTrack
	}
	if sel.Empty() {
		return audio.ErrEmptySelection
	}
	buf, err := audio.NewBuffer(track, sel)
	if err != nil {
		return err
	}
	if err := encode.WriteWAVFile(path, buf, p.config.ExportBitDepth); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	p.logger.Info("selection exported",
		"path", path,
		"start", sel.Start,
		"end", sel.End,
		"bit_depth", p.config.ExportBitDepth)
	return nil
}

// Status returns a snapshot of the player
func (p *Player) Status() Status {
	pb := p.engine.Status()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked(pb)
}

func (p *Player) statusLocked(pb playback.Status) Status {
	st := Status{
		Loaded:    p.track != nil,
		Name:      p.name,
		Selection: p.sel,
		Marker:    p.marker,
		HasMarker: p.hasMarker,
		VolumeDB:  p.volumeDB,
		Playback:  pb,
	}
	if p.track != nil {
		st.Format = p.track.Format
		st.Frames = p.track.Frames()
	}
	return st
}

// Close stops playback and releases the output device
func (p *Player) Close() error {
	return p.engine.Close()
}

func (p *Player) onEngineState(pb playback.Status) {
	if p.config.OnStateChange == nil {
		return
	}
	p.mu.Lock()
	st := p.statusLocked(pb)
	p.mu.Unlock()
	p.config.OnStateChange(st)
}

func (p *Player) notify() {
	p.onEngineState(p.engine.Status())
}

func (p *Player) notifyError(err error) {
	p.logger.Error("playback error", "err", err)
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}

func clampVolume(db float64) float64 {
	if math.IsNaN(db) {
		return 0
	}
	return min(max(db, MinVolumeDB), MaxVolumeDB)
}

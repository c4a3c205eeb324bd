// ABOUTME: Tests for TUI model and key handling
// ABOUTME: Drives the model with a fake controller and checks the resulting calls
package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/deck"
	"github.com/harperreed/wavdeck/pkg/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	status deck.Status

	plays, loops, stops int
	selects             [][2]float64
	frameSelects        [][2]int
	markers             []float64
	clears              int
	nudges              []float64
	exports             []string

	playErr error
}

func (f *fakeController) Status() deck.Status { return f.status }
func (f *fakeController) Play() error          { f.plays++; return f.playErr }
func (f *fakeController) Loop() error          { f.loops++; return nil }
func (f *fakeController) Stop()                { f.stops++ }
func (f *fakeController) ClearMarker()         { f.clears++; f.status.HasMarker = false }

func (f *fakeController) Select(startMs, endMs float64) (audio.Selection, error) {
	f.selects = append(f.selects, [2]float64{startMs, endMs})
	return audio.Selection{Start: int(startMs), End: int(endMs)}, nil
}

func (f *fakeController) SelectFrames(start, end int) (audio.Selection, error) {
	f.frameSelects = append(f.frameSelects, [2]int{start, end})
	f.status.Selection = audio.Selection{Start: start, End: end}
	return f.status.Selection, nil
}

func (f *fakeController) SetMarker(ms float64) (int, error) {
	f.markers = append(f.markers, ms)
	return int(ms), nil
}

func (f *fakeController) NudgeVolume(step float64) (float64, error) {
	f.nudges = append(f.nudges, step)
	return step, nil
}

func (f *fakeController) Export(path string) error {
	f.exports = append(f.exports, path)
	return nil
}

// loaded returns a controller holding a 10 s track at 1000 Hz, so one frame
// per millisecond
func loaded() *fakeController {
	return &fakeController{status: deck.Status{
		Loaded:    true,
		Name:      "take.wav",
		Format:    audio.Format{Codec: "wav", SampleRate: 1000, Channels: 2, BitDepth: 16},
		Frames:    10000,
		Selection: audio.Selection{Start: 1000, End: 3000},
	}}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestNewModelWithoutController(t *testing.T) {
	model := NewModel(nil)
	assert.False(t, model.status.Loaded)
	assert.Contains(t, model.View(), "No file loaded")
}

func TestTransportKeys(t *testing.T) {
	ctrl := loaded()
	m := press(t, NewModel(ctrl),
		tea.KeyMsg{Type: tea.KeySpace},
		runes("l"),
		runes("s"))

	assert.Equal(t, 1, ctrl.plays)
	assert.Equal(t, 1, ctrl.loops)
	assert.Equal(t, 1, ctrl.stops)
	assert.Equal(t, "stopped", m.message)
}

func TestPlayErrorShown(t *testing.T) {
	ctrl := loaded()
	ctrl.playErr = errors.New("device busy")

	m := press(t, NewModel(ctrl), tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.isError)
	assert.Contains(t, m.View(), "device busy")
}

func TestArrowKeysMoveEdges(t *testing.T) {
	tests := []struct {
		key  tea.KeyType
		want [2]int
	}{
		{tea.KeyLeft, [2]int{900, 3000}},
		{tea.KeyRight, [2]int{1100, 3000}},
		{tea.KeyDown, [2]int{1000, 2900}},
		{tea.KeyUp, [2]int{1000, 3100}},
	}

	for _, tt := range tests {
		t.Run(tea.KeyMsg{Type: tt.key}.String(), func(t *testing.T) {
			ctrl := loaded()
			press(t, NewModel(ctrl), tea.KeyMsg{Type: tt.key})
			require.Len(t, ctrl.frameSelects, 1)
			assert.Equal(t, tt.want, ctrl.frameSelects[0])
		})
	}
}

func TestEdgesNeedTrack(t *testing.T) {
	ctrl := &fakeController{}
	m := press(t, NewModel(ctrl), tea.KeyMsg{Type: tea.KeyLeft})
	assert.Empty(t, ctrl.frameSelects)
	assert.True(t, m.isError)
	assert.Equal(t, deck.ErrNoTrack.Error(), m.message)
}

func TestVolumeKeys(t *testing.T) {
	ctrl := loaded()
	press(t, NewModel(ctrl), runes("+"), runes("="), runes("-"))
	assert.Equal(t, []float64{deck.VolumeStepDB, deck.VolumeStepDB, -deck.VolumeStepDB}, ctrl.nudges)
}

func TestMarkerAtSelectionStartWhenIdle(t *testing.T) {
	ctrl := loaded()
	m := press(t, NewModel(ctrl), runes("m"))
	assert.Equal(t, []float64{1000}, ctrl.markers)
	assert.Contains(t, m.message, "1.000s")
}

func TestMarkerAtPlayPosition(t *testing.T) {
	ctrl := loaded()
	ctrl.status.Playback = playback.Status{State: playback.Looping, Position: 2500, Start: 1000, End: 3000}

	press(t, NewModel(ctrl), runes("m"))
	assert.Equal(t, []float64{2500}, ctrl.markers)
}

func TestClearMarker(t *testing.T) {
	ctrl := loaded()
	ctrl.status.HasMarker = true
	m := press(t, NewModel(ctrl), runes("M"))
	assert.Equal(t, 1, ctrl.clears)
	assert.False(t, m.status.HasMarker)
}

func TestRangeEntry(t *testing.T) {
	ctrl := loaded()
	m := press(t, NewModel(ctrl), runes("r"))
	assert.Equal(t, inputRange, m.mode)
	assert.Contains(t, m.View(), "Range")

	m = press(t, m, runes("1.5-2"), tea.KeyMsg{Type: tea.KeyBackspace}, runes("4"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, [][2]float64{{1500, 4000}}, ctrl.selects)
}

func TestRangeEntryCancelled(t *testing.T) {
	ctrl := loaded()
	m := press(t, NewModel(ctrl), runes("r"), runes("1-2"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, m.mode)
	assert.Empty(t, ctrl.selects)
}

func TestTypedKeysDoNotTriggerCommands(t *testing.T) {
	ctrl := loaded()
	press(t, NewModel(ctrl), runes("r"), runes("s"), runes("l"), runes("q"))
	assert.Zero(t, ctrl.stops)
	assert.Zero(t, ctrl.loops)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStart float64
		wantEnd   float64
	}{
		{"seconds", "0-5", 0, 5000},
		{"fractional", "1.25-2.5", 1250, 2500},
		{"spaces", " 1 - 3 ", 1000, 3000},
		{"comma", "2,4", 2000, 4000},
		{"start only", "7", 7000, 3000},
		{"end only", "-8", 1000, 8000},
		{"durations", "250ms-1.5s", 250, 1500},
		{"garbage keeps current", "abc-xyz", 1000, 3000},
		{"empty keeps current", "", 1000, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := parseRange(tt.text, 1000, 3000)
			assert.InDelta(t, tt.wantStart, start, 1e-9)
			assert.InDelta(t, tt.wantEnd, end, 1e-9)
		})
	}
}

func TestExportEntry(t *testing.T) {
	ctrl := loaded()
	m := press(t, NewModel(ctrl), runes("e"))
	assert.Equal(t, "take-1000-3000.wav", m.input)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"take-1000-3000.wav"}, ctrl.exports)
	assert.Equal(t, "exported take-1000-3000.wav", m.message)
}

func TestQuitStopsPlayback(t *testing.T) {
	ctrl := loaded()
	next, cmd := NewModel(ctrl).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, ctrl.stops)
	assert.True(t, next.(Model).quitting)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStatusMsgReplacesStatus(t *testing.T) {
	model := NewModel(nil)
	st := loaded().status
	st.Playback.State = playback.Playing

	m := press(t, model, StatusMsg(st))
	assert.True(t, m.status.Loaded)
	assert.Contains(t, m.View(), "take.wav")
	assert.Contains(t, m.View(), "playing")
}

func TestErrorMsgShown(t *testing.T) {
	m := press(t, NewModel(nil), ErrorMsg{Err: errors.New("stream died")})
	assert.True(t, m.isError)
	assert.Contains(t, m.View(), "stream died")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "░░░░", renderBar(0, 4))
	assert.Equal(t, "██░░", renderBar(0.5, 4))
	assert.Equal(t, "████", renderBar(1.7, 4))
	assert.Equal(t, "░░░░", renderBar(-1, 4))
}

func TestForwarderUnattached(t *testing.T) {
	f := NewForwarder()
	f.StateChanged(deck.Status{})
	f.Error(errors.New("ignored"))
}

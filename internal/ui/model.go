// ABOUTME: Bubbletea model for the wavdeck TUI
// ABOUTME: Maps keys to deck operations and renders selection and playback state
package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/wavdeck/internal/version"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/deck"
	"github.com/harperreed/wavdeck/pkg/playback"
)

// NudgeMillis is how far one arrow key press moves a selection edge
const NudgeMillis = 100

const refreshInterval = 100 * time.Millisecond

// Controller is the subset of deck.Player driven by the TUI
type Controller interface {
	Status() deck.Status
	Play() error
	Loop() error
	Stop()
	Select(startMs, endMs float64) (audio.Selection, error)
	SelectFrames(start, end int) (audio.Selection, error)
	SetMarker(ms float64) (int, error)
	ClearMarker()
	NudgeVolume(step float64) (float64, error)
	Export(path string) error
}

type inputMode int

const (
	inputNone inputMode = iota
	inputRange
	inputExport
)

// StatusMsg pushes a fresh deck status into the model
type StatusMsg deck.Status

// ErrorMsg shows a background error on the message line
type ErrorMsg struct{ Err error }

type tickMsg time.Time

// Model represents the TUI state
type Model struct {
	ctrl   Controller
	status deck.Status

	mode  inputMode
	input string

	message  string
	isError  bool
	quitting bool

	width int
}

// NewModel creates a model bound to ctrl
func NewModel(ctrl Controller) Model {
	m := Model{ctrl: ctrl}
	if ctrl != nil {
		m.status = ctrl.Status()
	}
	return m
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.refresh()
		return m, tickEvery()
	case StatusMsg:
		m.status = deck.Status(msg)
	case ErrorMsg:
		m.setError(msg.Err)
	}
	return m, nil
}

// handleKey handles keyboard input outside text entry
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.ctrl.Stop()
		return m, tea.Quit
	case " ":
		m.report(m.ctrl.Play(), "playing selection")
	case "l":
		m.report(m.ctrl.Loop(), "looping selection")
	case "s":
		m.ctrl.Stop()
		m.setInfo("stopped")
	case "left":
		m.moveEdges(-NudgeMillis, 0)
	case "right":
		m.moveEdges(NudgeMillis, 0)
	case "down":
		m.moveEdges(0, -NudgeMillis)
	case "up":
		m.moveEdges(0, NudgeMillis)
	case "+", "=":
		m.nudgeVolume(deck.VolumeStepDB)
	case "-", "_":
		m.nudgeVolume(-deck.VolumeStepDB)
	case "m":
		m.placeMarker()
	case "M":
		m.ctrl.ClearMarker()
		m.setInfo("marker cleared")
	case "r":
		m.mode = inputRange
		m.input = ""
	case "e":
		m.mode = inputExport
		m.input = m.defaultExportName()
	}
	m.refresh()
	return m, nil
}

// handleInput edits the prompt line
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.mode = inputNone
		m.input = ""
	case tea.KeyEnter:
		m.submitInput()
		m.mode = inputNone
		m.input = ""
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	m.refresh()
	return m, nil
}

func (m *Model) submitInput() {
	switch m.mode {
	case inputRange:
		curStart, curEnd := m.selectionMillis()
		startMs, endMs := parseRange(m.input, curStart, curEnd)
		sel, err := m.ctrl.Select(startMs, endMs)
		if err != nil {
			m.setError(err)
			return
		}
		m.setInfo(fmt.Sprintf("selected %s", formatSelection(sel, m.status.Format.SampleRate)))
	case inputExport:
		path := strings.TrimSpace(m.input)
		if path == "" {
			m.setInfo("export cancelled")
			return
		}
		if err := m.ctrl.Export(path); err != nil {
			m.setError(err)
			return
		}
		m.setInfo("exported " + path)
	}
}

func (m *Model) moveEdges(startMs, endMs float64) {
	rate := m.status.Format.SampleRate
	if !m.status.Loaded || rate == 0 {
		m.setError(deck.ErrNoTrack)
		return
	}
	sel := m.status.Selection
	start := sel.Start + audio.MillisToFrames(startMs, rate)
	end := sel.End + audio.MillisToFrames(endMs, rate)
	if _, err := m.ctrl.SelectFrames(start, end); err != nil {
		m.setError(err)
	}
}

func (m *Model) nudgeVolume(step float64) {
	db, err := m.ctrl.NudgeVolume(step)
	if err != nil {
		m.setError(err)
		return
	}
	m.setInfo(fmt.Sprintf("volume %+.1f dB", db))
}

// placeMarker drops the marker at the play position, or at the selection
// start when nothing is playing
func (m *Model) placeMarker() {
	rate := m.status.Format.SampleRate
	if !m.status.Loaded || rate == 0 {
		m.setError(deck.ErrNoTrack)
		return
	}
	frame := m.status.Selection.Start
	if m.status.Playback.State.Active() {
		frame = m.status.Playback.Position
	}
	placed, err := m.ctrl.SetMarker(audio.FramesToMillis(frame, rate))
	if err != nil {
		m.setError(err)
		return
	}
	m.setInfo("marker at " + formatFrames(placed, rate))
}

func (m *Model) refresh() {
	if m.ctrl != nil {
		m.status = m.ctrl.Status()
	}
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.setError(err)
		return
	}
	m.setInfo(ok)
}

func (m *Model) setInfo(s string) {
	m.message = s
	m.isError = false
}

func (m *Model) setError(err error) {
	m.message = err.Error()
	m.isError = true
}

func (m Model) selectionMillis() (float64, float64) {
	rate := m.status.Format.SampleRate
	return audio.FramesToMillis(m.status.Selection.Start, rate),
		audio.FramesToMillis(m.status.Selection.End, rate)
}

func (m Model) defaultExportName() string {
	base := strings.TrimSuffix(m.status.Name, filepath.Ext(m.status.Name))
	if base == "" {
		base = "selection"
	}
	rate := m.status.Format.SampleRate
	startMs := int(audio.FramesToMillis(m.status.Selection.Start, rate))
	endMs := int(audio.FramesToMillis(m.status.Selection.End, rate))
	return fmt.Sprintf("%s-%d-%d.wav", base, startMs, endMs)
}

// parseRange reads "start-end" in seconds. Durations with units ("1.5s",
// "250ms") are accepted; a missing or unreadable bound keeps its current value.
func parseRange(text string, curStartMs, curEndMs float64) (float64, float64) {
	startText, endText, _ := strings.Cut(strings.TrimSpace(text), "-")
	if !strings.Contains(text, "-") {
		startText, endText, _ = strings.Cut(strings.TrimSpace(text), ",")
	}
	return secondsToMillis(startText, curStartMs), secondsToMillis(endText, curEndMs)
}

func secondsToMillis(text string, fallback float64) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		return v * 1000
	}
	return audio.ParseMillis(text, fallback)
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", version.Product, version.Version)))
	b.WriteString("\n\n")

	st := m.status
	if !st.Loaded {
		b.WriteString(valueStyle.Render("No file loaded"))
		b.WriteString("\n\n")
	} else {
		rate := st.Format.SampleRate
		row := func(label, value string) {
			b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", label)))
			b.WriteString(valueStyle.Render(value))
			b.WriteString("\n")
		}

		row("File:", st.Name)
		row("Format:", fmt.Sprintf("%s %dHz %s %s", st.Format.Codec, rate,
			channelName(st.Format.Channels), formatFrames(st.Frames, rate)))
		row("State:", stateLabel(st.Playback.State))
		row("Range:", formatSelection(st.Selection, rate))

		marker := "none"
		if st.HasMarker {
			marker = formatFrames(st.Marker, rate)
		}
		row("Marker:", marker)
		row("Volume:", fmt.Sprintf("%+.1f dB", st.VolumeDB))

		progress := 0.0
		position := st.Selection.Start
		if st.Playback.State != playback.Idle || st.Playback.Position > 0 {
			progress = st.Playback.Progress()
			position = st.Playback.Position
		}
		row("Position:", fmt.Sprintf("[%s] %s", renderBar(progress, barWidth(m.width)), formatFrames(position, rate)))
		b.WriteString("\n")
	}

	switch m.mode {
	case inputRange:
		b.WriteString(headerStyle.Render("Range (seconds, start-end): "))
		b.WriteString(m.input + "_\n")
	case inputExport:
		b.WriteString(headerStyle.Render("Export to: "))
		b.WriteString(m.input + "_\n")
	default:
		if m.message != "" {
			style := valueStyle
			if m.isError {
				style = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
			}
			b.WriteString(style.Render(m.message))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render(
		"space:Play  l:Loop  s:Stop  ←/→:Start  ↓/↑:End  +/-:Volume  m/M:Marker  r:Range  e:Export  q:Quit"))

	return b.String()
}

// Utility functions
func renderBar(fraction float64, width int) string {
	filled := int(math.Round(min(max(fraction, 0), 1) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return 30
	}
	return min(max(termWidth-40, 10), 60)
}

func formatFrames(frames, rate int) string {
	if rate <= 0 {
		return "0.000s"
	}
	return fmt.Sprintf("%.3fs", float64(frames)/float64(rate))
}

func formatSelection(sel audio.Selection, rate int) string {
	return fmt.Sprintf("%s - %s (%s)", formatFrames(sel.Start, rate),
		formatFrames(sel.End, rate), formatFrames(sel.Frames(), rate))
}

func stateLabel(s playback.State) string {
	switch s {
	case playback.Playing:
		return "▶ playing"
	case playback.Looping:
		return "⟳ looping"
	case playback.Stopping:
		return "■ stopping"
	default:
		return "■ idle"
	}
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

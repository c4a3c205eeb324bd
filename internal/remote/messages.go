// ABOUTME: JSON message types for the remote control websocket
// ABOUTME: Envelope, hello, command, status and error payloads
package remote

import (
	"encoding/json"

	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/deck"
)

// Message types
const (
	TypeHello   = "hello"
	TypeStatus  = "status"
	TypeCommand = "command"
	TypeError   = "error"
)

// Command actions
const (
	ActionPlay   = "play"
	ActionLoop   = "loop"
	ActionStop   = "stop"
	ActionSelect = "select"
	ActionMarker = "marker"
	ActionVolume = "volume"
)

// Message is the top-level wrapper for all messages
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound is a Message whose payload is decoded by type
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hello is sent by the server when a client connects. Clients may send one
// to name themselves.
type Hello struct {
	ClientID string `json:"client_id,omitempty"`
	Name     string `json:"name"`
	Product  string `json:"product,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Command asks the deck to do something. Fields are read per action:
// select uses StartMs/EndMs, marker uses Ms or Clear, volume uses DB or Step.
type Command struct {
	Action  string   `json:"action"`
	StartMs float64  `json:"start_ms,omitempty"`
	EndMs   float64  `json:"end_ms,omitempty"`
	Ms      float64  `json:"ms,omitempty"`
	Clear   bool     `json:"clear,omitempty"`
	DB      *float64 `json:"db,omitempty"`
	Step    float64  `json:"step,omitempty"`
}

// ErrorPayload reports a failed command
type ErrorPayload struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

// Range is a selection in frames and milliseconds
type Range struct {
	Start   int     `json:"start"`
	End     int     `json:"end"`
	StartMs float64 `json:"start_ms"`
	EndMs   float64 `json:"end_ms"`
}

// Status is the wire form of deck.Status
type Status struct {
	Loaded     bool     `json:"loaded"`
	Name       string   `json:"name,omitempty"`
	Codec      string   `json:"codec,omitempty"`
	SampleRate int      `json:"sample_rate,omitempty"`
	Channels   int      `json:"channels,omitempty"`
	Frames     int      `json:"frames"`
	DurationMs float64  `json:"duration_ms"`
	Selection  Range    `json:"selection"`
	MarkerMs   *float64 `json:"marker_ms,omitempty"`
	VolumeDB   float64  `json:"volume_db"`
	State      string   `json:"state"`
	Loop       bool     `json:"loop"`
	PositionMs float64  `json:"position_ms"`
	Progress   float64  `json:"progress"`
}

// NewStatus converts a deck status for the wire
func NewStatus(st deck.Status) Status {
	rate := st.Format.SampleRate
	out := Status{
		Loaded:     st.Loaded,
		Name:       st.Name,
		Codec:      st.Format.Codec,
		SampleRate: rate,
		Channels:   st.Format.Channels,
		Frames:     st.Frames,
		DurationMs: audio.FramesToMillis(st.Frames, rate),
		Selection: Range{
			Start:   st.Selection.Start,
			End:     st.Selection.End,
			StartMs: audio.FramesToMillis(st.Selection.Start, rate),
			EndMs:   audio.FramesToMillis(st.Selection.End, rate),
		},
		VolumeDB:   st.VolumeDB,
		State:      st.Playback.State.String(),
		Loop:       st.Playback.Loop,
		PositionMs: st.Playback.PositionMillis(),
		Progress:   st.Playback.Progress(),
	}
	if st.HasMarker {
		ms := audio.FramesToMillis(st.Marker, rate)
		out.MarkerMs = &ms
	}
	return out
}

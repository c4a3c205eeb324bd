// ABOUTME: Playback state and status snapshot types
// ABOUTME: State machine values and the polled view of the engine
package playback

import "github.com/harperreed/wavdeck/pkg/audio"

// State of the playback engine
type State int32

const (
	Idle State = iota
	Playing
	Looping
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Looping:
		return "looping"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Active reports whether audio is being produced
func (s State) Active() bool {
	return s == Playing || s == Looping
}

// Status is a point-in-time view of the engine
type Status struct {
	State      State
	Loop       bool
	Position   int // absolute frame in track coordinates
	Start      int // selection start frame
	End        int // selection end frame
	SampleRate int
	Channels   int
	VolumeDB   float64
}

// PositionMillis converts Position to milliseconds
func (s Status) PositionMillis() float64 {
	return audio.FramesToMillis(s.Position, s.SampleRate)
}

// Progress returns the position within the selection in [0, 1]
func (s Status) Progress() float64 {
	if s.End <= s.Start {
		return 0
	}
	p := float64(s.Position-s.Start) / float64(s.End-s.Start)
	return min(max(p, 0), 1)
}

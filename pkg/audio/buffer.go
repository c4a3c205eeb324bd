// ABOUTME: Sample buffer materialized from a track selection
// ABOUTME: Read-only frames handed to the playback engine for one session
package audio

import "fmt"

// Buffer holds the frames of one Selection. It is created for every play
// request and never mutated afterwards, so the real-time callback may read
// it without synchronization.
type Buffer struct {
	Format  Format
	Samples []float32 // interleaved, normalized
	Start   int       // first frame of the selection in track coordinates
}

// NewBuffer copies the frames of sel out of track. Values are clamped to
// [-1, 1] during the copy.
func NewBuffer(track *Track, sel Selection) (*Buffer, error) {
	if track == nil {
		return nil, fmt.Errorf("new buffer: nil track: %w", ErrInvalidSelection)
	}
	if sel.Start < 0 || sel.End > track.Frames() || sel.End < sel.Start {
		return nil, fmt.Errorf("new buffer: [%d, %d) of %d frames: %w",
			sel.Start, sel.End, track.Frames(), ErrInvalidSelection)
	}
	if sel.Empty() {
		return nil, ErrEmptySelection
	}

	ch := track.Format.Channels
	src := track.Samples[sel.Start*ch : sel.End*ch]
	samples := make([]float32, len(src))
	for i, s := range src {
		samples[i] = Clamp(s)
	}

	return &Buffer{
		Format:  track.Format,
		Samples: samples,
		Start:   sel.Start,
	}, nil
}

// Frames returns the buffer length in frames
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// End returns the frame after the last one, in track coordinates
func (b *Buffer) End() int { return b.Start + b.Frames() }

// Selection returns the range this buffer was built from
func (b *Buffer) Selection() Selection {
	return Selection{Start: b.Start, End: b.End()}
}

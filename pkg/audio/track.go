// ABOUTME: Track and Selection types
// ABOUTME: A loaded audio asset and half-open frame ranges into it
package audio

import (
	"fmt"
	"math"
	"time"
)

// Track is a fully loaded, normalized audio asset. Samples are interleaved
// float32 values in [-1, 1]. A Track is never mutated after construction.
type Track struct {
	Format  Format
	Samples []float32
}

// NewTrack validates format and sample layout. samples is retained, not
// copied, and out-of-range values are clamped in place.
func NewTrack(format Format, samples []float32) (*Track, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("new track: %w", err)
	}
	if len(samples)%format.Channels != 0 {
		return nil, fmt.Errorf("new track: %d samples not divisible by %d channels: %w",
			len(samples), format.Channels, ErrInvalidFormat)
	}
	for i, s := range samples {
		samples[i] = Clamp(s)
	}
	return &Track{Format: format, Samples: samples}, nil
}

// NewTrackFromPCM normalizes raw interleaved integer PCM of format.BitDepth
func NewTrackFromPCM(format Format, pcm []int) (*Track, error) {
	samples := make([]float32, len(pcm))
	for i, v := range pcm {
		samples[i] = SampleFromInt(v, format.BitDepth)
	}
	return NewTrack(format, samples)
}

// Frames returns the track length in frames
func (t *Track) Frames() int {
	if t == nil || t.Format.Channels == 0 {
		return 0
	}
	return len(t.Samples) / t.Format.Channels
}

// Duration returns the track length as wall-clock time
func (t *Track) Duration() time.Duration {
	if t == nil || t.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(t.Frames()) / float64(t.Format.SampleRate) * float64(time.Second))
}

// Whole selects every frame of the track
func (t *Track) Whole() Selection {
	return Selection{Start: 0, End: t.Frames()}
}

// Select clamps a frame range into the track, forcing End >= Start
func (t *Track) Select(start, end int) Selection {
	n := t.Frames()
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	end = max(end, start)
	return Selection{Start: start, End: end}
}

// SelectMillis converts millisecond bounds to frames and clamps them
func (t *Track) SelectMillis(startMs, endMs float64) Selection {
	if math.IsInf(startMs, -1) {
		startMs = 0
	}
	if math.IsInf(endMs, 1) {
		endMs = math.MaxInt32
	}
	rate := t.Format.SampleRate
	return t.Select(MillisToFrames(startMs, rate), MillisToFrames(endMs, rate))
}

// Selection is a half-open frame range [Start, End)
type Selection struct {
	Start int
	End   int
}

// Frames returns the number of frames covered
func (s Selection) Frames() int { return s.End - s.Start }

// Empty reports whether the selection must not be played
func (s Selection) Empty() bool { return s.Start == s.End }

// Contains reports whether frame lies in [Start, End]
func (s Selection) Contains(frame int) bool {
	return frame >= s.Start && frame <= s.End
}

// ClampFrame moves frame into [Start, End]
func (s Selection) ClampFrame(frame int) int {
	return min(max(frame, s.Start), s.End)
}

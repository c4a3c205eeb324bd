// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to adapt loaded tracks to a fixed output device rate
package resample

import (
	"fmt"
	"math"

	"github.com/harperreed/wavdeck/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// OutputFrames returns how many frames Resample produces for inputFrames
func (r *Resampler) OutputFrames(inputFrames int) int {
	if inputFrames <= 0 {
		return 0
	}
	return int(math.Round(float64(inputFrames) / r.ratio))
}

// Resample converts a complete interleaved signal to the output rate.
// The last input frame is held for positions past the end.
func (r *Resampler) Resample(input []float32) []float32 {
	ch := r.channels
	inputFrames := len(input) / ch
	outputFrames := r.OutputFrames(inputFrames)
	output := make([]float32, outputFrames*ch)

	for outIdx := 0; outIdx < outputFrames; outIdx++ {
		// Calculate which input frame we need
		inputPos := float64(outIdx) * r.ratio
		inputIdx := int(inputPos)
		if inputIdx >= inputFrames-1 {
			copy(output[outIdx*ch:(outIdx+1)*ch], input[(inputFrames-1)*ch:inputFrames*ch])
			continue
		}

		// Linear interpolation factor
		frac := float32(inputPos - float64(inputIdx))

		for c := 0; c < ch; c++ {
			sample1 := input[inputIdx*ch+c]
			sample2 := input[(inputIdx+1)*ch+c]
			output[outIdx*ch+c] = sample1*(1-frac) + sample2*frac
		}
	}

	return output
}

// Track returns t converted to rate. t itself is returned when the rates match.
func Track(t *audio.Track, rate int) (*audio.Track, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("resample to %dHz: %w", rate, audio.ErrInvalidFormat)
	}
	if t.Format.SampleRate == rate {
		return t, nil
	}

	r := New(t.Format.SampleRate, rate, t.Format.Channels)
	format := t.Format
	format.SampleRate = rate
	return audio.NewTrack(format, r.Resample(t.Samples))
}

// ABOUTME: Tests for the linear resampler
// ABOUTME: Checks frame counts, interpolation and track conversion
package resample

import (
	"testing"

	"github.com/harperreed/wavdeck/internal/audiotest"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFrames(t *testing.T) {
	tests := []struct {
		in, out, frames, want int
	}{
		{44100, 48000, 44100, 48000},
		{48000, 44100, 48000, 44100},
		{22050, 44100, 100, 200},
		{44100, 44100, 123, 123},
		{44100, 48000, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.in, tt.out, 2).OutputFrames(tt.frames), "%d->%d", tt.in, tt.out)
	}
}

func TestResampleUpsampleInterpolates(t *testing.T) {
	r := New(1000, 2000, 1)
	out := r.Resample([]float32{0, 1, 0})

	require.Len(t, out, 6)
	assert.Equal(t, []float32{0, 0.5, 1, 0.5, 0, 0}, out)
}

func TestResampleStereoKeepsChannels(t *testing.T) {
	r := New(1000, 2000, 2)
	out := r.Resample([]float32{0, 1, 1, 0})

	require.Len(t, out, 8)
	assert.Equal(t, []float32{0, 1, 0.5, 0.5, 1, 0, 1, 0}, out)
}

func TestResampleDownsample(t *testing.T) {
	r := New(2000, 1000, 1)
	out := r.Resample([]float32{0, 0.1, 0.2, 0.3, 0.4, 0.5})
	assert.Equal(t, []float32{0, 0.2, 0.4}, out)
}

func TestTrack(t *testing.T) {
	track, err := audio.NewTrack(audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16},
		audiotest.Sine(44100, 2, 44100, 440))
	require.NoError(t, err)

	same, err := Track(track, 44100)
	require.NoError(t, err)
	assert.Same(t, track, same)

	converted, err := Track(track, 48000)
	require.NoError(t, err)
	assert.Equal(t, 48000, converted.Format.SampleRate)
	assert.Equal(t, 2, converted.Format.Channels)
	assert.Equal(t, 16, converted.Format.BitDepth)
	assert.Equal(t, 48000, converted.Frames())
	assert.LessOrEqual(t, audiotest.Peak(converted.Samples), float32(0.5001))

	_, err = Track(track, 0)
	assert.ErrorIs(t, err, audio.ErrInvalidFormat)
}

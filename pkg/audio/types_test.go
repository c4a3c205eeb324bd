// ABOUTME: Tests for audio types
// ABOUTME: Tests time, gain and sample conversion functions
package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMillisToFrames(t *testing.T) {
	tests := []struct {
		name     string
		ms       float64
		rate     int
		expected int
	}{
		{"zero", 0, 44100, 0},
		{"one second", 1000, 44100, 44100},
		{"half second", 500, 44100, 22050},
		{"rounds up", 0.5, 3000, 2},   // 1.5 frames
		{"rounds down", 0.4, 3000, 1}, // 1.2 frames
		{"negative", -10, 1000, -10},
		{"nan", math.NaN(), 44100, 0},
		{"zero rate", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MillisToFrames(tt.ms, tt.rate))
		})
	}
}

func TestFramesToMillisRoundTrip(t *testing.T) {
	for _, rate := range []int{8000, 22050, 44100, 48000, 96000} {
		for _, ms := range []float64{0, 1, 250, 1000, 61234} {
			frames := MillisToFrames(ms, rate)
			back := FramesToMillis(frames, rate)
			assert.InDelta(t, ms, back, 1000.0/float64(rate), "rate=%d ms=%v", rate, ms)
		}
	}
}

func TestGainFromDB(t *testing.T) {
	assert.InDelta(t, 1.0, GainFromDB(0), 1e-12)
	assert.InDelta(t, 1.9953, GainFromDB(6), 1e-4)
	assert.InDelta(t, 0.5012, GainFromDB(-6), 1e-4)
	assert.InDelta(t, 10.0, GainFromDB(20), 1e-9)
	assert.InDelta(t, 0.1, GainFromDB(-20), 1e-12)
}

func TestParseMillis(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1500", 1500},
		{" 750.5 ", 750.5},
		{"1.5s", 1500},
		{"250ms", 250},
		{"-20", -20},
		{"", 42},
		{"abc", 42},
		{"NaN", 42},
		{"Inf", 42},
		{"1.2.3", 42},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMillis(tt.input, 42))
		})
	}
}

func TestSampleFromInt(t *testing.T) {
	tests := []struct {
		name     string
		v        int
		bitDepth int
		expected float32
	}{
		{"16 zero", 0, 16, 0},
		{"16 min", -32768, 16, -1},
		{"16 half", 16384, 16, 0.5},
		{"24 min", Min24Bit, 24, -1},
		{"24 half", 4194304, 24, 0.5},
		{"8 midpoint", 128, 8, 0},
		{"8 min", 0, 8, -1},
		{"32 half", 1073741824, 32, 0.5},
		{"unknown depth treated as 16", 16384, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleFromInt(tt.v, tt.bitDepth))
		})
	}
}

func TestSampleToInt(t *testing.T) {
	assert.Equal(t, 0, SampleToInt(0, 16))
	assert.Equal(t, 32767, SampleToInt(1, 16))
	assert.Equal(t, -32768, SampleToInt(-1, 16))
	assert.Equal(t, 32767, SampleToInt(3, 16), "clips above full scale")
	assert.Equal(t, Max24Bit, SampleToInt(1, 24))
	assert.Equal(t, Min24Bit, SampleToInt(-1, 24))
	assert.Equal(t, 16384, SampleToInt(0.5, 16))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(1.5))
	assert.Equal(t, float32(-1), Clamp(-2))
	assert.Equal(t, float32(0.25), Clamp(0.25))
	assert.Equal(t, float32(0), Clamp(float32(math.NaN())))
}

func TestFormatValidate(t *testing.T) {
	assert.NoError(t, Format{SampleRate: 44100, Channels: 1}.Validate())
	assert.ErrorIs(t, Format{SampleRate: 0, Channels: 1}.Validate(), ErrInvalidFormat)
	assert.ErrorIs(t, Format{SampleRate: 44100, Channels: 0}.Validate(), ErrInvalidFormat)
}

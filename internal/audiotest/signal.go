// ABOUTME: Test signal generators shared by package tests
// ABOUTME: Produces interleaved float32 PCM without importing pkg/audio
package audiotest

import "math"

// Generate builds frames*channels interleaved samples from waveform
func Generate(channels, frames int, waveform func(frame, channel int) float32) []float32 {
	out := make([]float32, frames*channels)
	for f := range frames {
		for c := range channels {
			out[f*channels+c] = waveform(f, c)
		}
	}
	return out
}

// Sine generates a sine wave of the given frequency at amplitude 0.5 on every channel
func Sine(sampleRate, channels, frames int, frequency float64) []float32 {
	return Generate(channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(0.5 * math.Sin(2*math.Pi*frequency*t))
	})
}

// Constant generates a DC signal
func Constant(channels, frames int, value float32) []float32 {
	return Generate(channels, frames, func(int, int) float32 { return value })
}

// Ramp encodes each frame index into its sample value (frame+1)/scale so
// tests can tell which frame ended up where. Channel c adds c/(2*channels)
// before scaling, which keeps every value below 1.
func Ramp(channels, frames int) []float32 {
	scale := float32(frames + 1)
	return Generate(channels, frames, func(frame, channel int) float32 {
		return (float32(frame+1) + float32(channel)/float32(2*channels)) / scale
	})
}

// Silent reports whether every sample is exactly zero
func Silent(samples []float32) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}

// Peak returns the largest absolute sample value
func Peak(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}

// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats and sample/time conversions
package audio

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int // bit depth of the source PCM, 0 when the codec is lossy
}

// Validate reports ErrInvalidFormat for unusable formats
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels < 1 {
		return ErrInvalidFormat
	}
	return nil
}

// MillisToFrames converts a millisecond offset to a frame index:
// round(ms * sampleRate / 1000).
func MillisToFrames(ms float64, sampleRate int) int {
	if math.IsNaN(ms) || sampleRate <= 0 {
		return 0
	}
	f := math.Round(ms * float64(sampleRate) / 1000)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// FramesToMillis is the inverse of MillisToFrames
func FramesToMillis(frames, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(frames) * 1000 / float64(sampleRate)
}

// GainFromDB converts a decibel volume to a linear amplitude multiplier
func GainFromDB(db float64) float64 {
	return math.Pow(10, db/20)
}

// ParseMillis parses typed range input. Bare numbers are milliseconds,
// duration suffixes ("1.5s", "250ms") are honored. Anything unparseable
// yields fallback so range entry never fails outright.
func ParseMillis(text string, fallback float64) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
		return v
	}

	if d, err := time.ParseDuration(text); err == nil {
		return float64(d) / float64(time.Millisecond)
	}

	return fallback
}

// SampleFromInt normalizes an integer PCM sample of the given bit depth to [-1, 1)
func SampleFromInt(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		// 8-bit WAV PCM is unsigned
		return float32(v-128) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		return float32(v) / 32768.0
	}
}

// SampleToInt quantizes a normalized sample to the given bit depth with clipping
func SampleToInt(s float32, bitDepth int) int {
	s = Clamp(s)
	switch bitDepth {
	case 24:
		v := int(math.Round(float64(s) * 8388608.0))
		if v > Max24Bit {
			v = Max24Bit
		}
		return v
	default:
		v := int(math.Round(float64(s) * 32768.0))
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		return v
	}
}

// Clamp limits a sample to the normalized range [-1, 1]. NaN becomes silence.
func Clamp(s float32) float32 {
	switch {
	case math.IsNaN(float64(s)):
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

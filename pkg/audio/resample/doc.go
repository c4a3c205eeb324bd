// ABOUTME: Sample rate conversion for decoded tracks
// ABOUTME: Converts float32 tracks between sample rates
// Package resample converts interleaved float32 audio between sample rates
// by linear interpolation. The deck uses it to match a fixed device rate.
//
// Example:
//
//	track48k, err := resample.Track(track, 48000)
package resample

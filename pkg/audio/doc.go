// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Track, Selection and Buffer plus sample conversions
// Package audio provides the fundamental PCM types used throughout wavdeck.
//
// This package defines:
//   - Format: sample rate, channel count and source bit depth of a track
//   - Track: a fully decoded, normalized, interleaved float32 audio asset
//   - Selection: a half-open frame range into a Track
//   - Buffer: the materialized, read-only frames of a Selection
//
// It also provides the pure conversions a presentation layer needs:
//   - milliseconds <-> frames at a given sample rate
//   - decibels -> linear gain
//   - integer PCM <-> normalized float samples
//
// Example:
//
//	track, err := audio.NewTrack(audio.Format{SampleRate: 44100, Channels: 1}, samples)
//	sel := track.SelectMillis(500, 1500)
//	buf, err := audio.NewBuffer(track, sel)
//	// buf.Frames() == 44100
package audio

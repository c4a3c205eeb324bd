// ABOUTME: Sentinel errors for the playback engine
// ABOUTME: Start and SetVolume argument validation failures
package playback

import "errors"

var (
	// ErrOffsetOutOfRange is returned when a start offset lies outside [0, frames]
	ErrOffsetOutOfRange = errors.New("start offset out of range")

	// ErrInvalidVolume is returned for NaN or infinite decibel values
	ErrInvalidVolume = errors.New("invalid volume")
)

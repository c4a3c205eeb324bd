// ABOUTME: Sentinel errors for audio types
// ABOUTME: Returned by track and buffer constructors
package audio

import "errors"

var (
	// ErrEmptySelection is returned when a selection has Start == End.
	ErrEmptySelection = errors.New("empty selection")

	// ErrInvalidSelection is returned when a selection lies outside its track.
	ErrInvalidSelection = errors.New("selection out of bounds")

	// ErrInvalidFormat is returned for non-positive sample rates or channel counts.
	ErrInvalidFormat = errors.New("invalid audio format")
)

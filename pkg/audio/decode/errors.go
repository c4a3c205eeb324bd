// ABOUTME: Sentinel errors for audio decoding
// ABOUTME: Unknown extensions and malformed files
package decode

import "errors"

var (
	// ErrUnsupportedFormat is returned for extensions or encodings without a decoder
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidFile is returned when data does not parse as the expected format
	ErrInvalidFile = errors.New("invalid audio file")
)

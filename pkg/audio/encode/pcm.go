// ABOUTME: PCM quantization
// ABOUTME: Converts normalized float32 samples to 16-bit or 24-bit integers
package encode

import (
	"errors"
	"fmt"

	"github.com/harperreed/wavdeck/pkg/audio"
)

// ErrUnsupportedBitDepth is returned for bit depths other than 16 and 24
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// ValidBitDepth reports whether bitDepth can be exported
func ValidBitDepth(bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: %d (supported: 16, 24)", ErrUnsupportedBitDepth, bitDepth)
	}
	return nil
}

// Quantize converts samples to integers of bitDepth with clipping
func Quantize(samples []float32, bitDepth int) ([]int, error) {
	if err := ValidBitDepth(bitDepth); err != nil {
		return nil, err
	}
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = audio.SampleToInt(s, bitDepth)
	}
	return out, nil
}

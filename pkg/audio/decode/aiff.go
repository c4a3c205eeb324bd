// ABOUTME: AIFF file decoder
// ABOUTME: Decodes AIFF/AIFC PCM files via go-audio/aiff
package decode

import (
	"errors"
	"io"

	"github.com/go-audio/aiff"
	"github.com/harperreed/wavdeck/pkg/audio"
)

// AIFF decodes uncompressed AIFF files
type AIFF struct{}

// Decode reads the whole file
func (AIFF) Decode(r io.ReadSeeker) (*audio.Track, error) {
	d := aiff.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, invalid("aiff", errors.New("missing FORM/AIFF header"))
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, invalid("aiff", err)
	}
	if buf.Format == nil {
		return nil, invalid("aiff", errors.New("missing COMM chunk"))
	}

	format := audio.Format{
		Codec:      "aiff",
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(d.BitDepth),
	}
	if format.BitDepth == 8 {
		return audio.NewTrack(format, signed8(buf.Data))
	}
	return audio.NewTrackFromPCM(format, buf.Data)
}

// signed8 normalizes 8-bit AIFF samples. AIFF stores them as two's
// complement but go-audio/aiff hands back the raw byte.
func signed8(pcm []int) []float32 {
	samples := make([]float32, len(pcm))
	for i, v := range pcm {
		samples[i] = float32(int8(uint8(v))) / 128.0
	}
	return samples
}

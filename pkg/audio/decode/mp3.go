// ABOUTME: MP3 file decoder
// ABOUTME: Decodes MP3 to stereo float32 via go-mp3
package decode

import (
	"encoding/binary"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/harperreed/wavdeck/pkg/audio"
)

// MP3 decodes MPEG-1/2 layer III files. go-mp3 always outputs 16-bit stereo.
type MP3 struct{}

// Decode reads the whole file
func (MP3) Decode(r io.ReadSeeker) (*audio.Track, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, invalid("mp3", err)
	}

	data, err := io.ReadAll(d)
	if err != nil {
		return nil, invalid("mp3", err)
	}

	// 2 channels * 2 bytes
	numSamples := len(data) / 4 * 2
	samples := make([]float32, numSamples)
	for i := range samples {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(sample16) / 32768.0
	}

	format := audio.Format{
		Codec:      "mp3",
		SampleRate: d.SampleRate(),
		Channels:   2,
	}
	return audio.NewTrack(format, samples)
}

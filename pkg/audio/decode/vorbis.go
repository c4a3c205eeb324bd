// ABOUTME: Ogg Vorbis file decoder
// ABOUTME: Decodes Vorbis streams via jfreymuth/oggvorbis
package decode

import (
	"io"

	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// Vorbis decodes Ogg Vorbis files
type Vorbis struct{}

// Decode reads the whole stream
func (Vorbis) Decode(r io.ReadSeeker) (*audio.Track, error) {
	samples, f, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, invalid("vorbis", err)
	}

	format := audio.Format{
		Codec:      "vorbis",
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
	return audio.NewTrack(format, samples)
}

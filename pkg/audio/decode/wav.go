// ABOUTME: WAV file decoder
// ABOUTME: Decodes integer PCM WAV files via go-audio/wav
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/harperreed/wavdeck/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAV decodes RIFF/WAVE files with integer PCM of 8, 16, 24 or 32 bits
type WAV struct{}

// Decode reads the whole file
func (WAV) Decode(r io.ReadSeeker) (*audio.Track, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, invalid("wav", errors.New("missing RIFF/WAVE header"))
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, invalid("wav", err)
	}
	if buf.Format == nil {
		return nil, invalid("wav", errors.New("missing fmt chunk"))
	}

	format := audio.Format{
		Codec:      "wav",
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(d.BitDepth),
	}
	return audio.NewTrackFromPCM(format, buf.Data)
}

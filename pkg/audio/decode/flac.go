// ABOUTME: FLAC file decoder
// ABOUTME: Decodes FLAC frames to float32 via mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLAC decodes native FLAC streams of any bit depth
type FLAC struct{}

// Decode reads every frame of the stream
func (FLAC) Decode(r io.ReadSeeker) (*audio.Track, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, invalid("flac", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels < 1 || bitDepth < 4 || bitDepth > 32 {
		return nil, invalid("flac", fmt.Errorf("stream info %dch/%dbit", channels, bitDepth))
	}

	// FLAC samples are signed at every bit depth
	scale := float32(int64(1) << (bitDepth - 1))

	samples := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("flac", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, float32(frame.Subframes[ch].Samples[i])/scale)
			}
		}
	}

	format := audio.Format{
		Codec:      "flac",
		SampleRate: int(info.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
	}
	return audio.NewTrack(format, samples)
}

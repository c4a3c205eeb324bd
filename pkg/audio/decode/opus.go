// ABOUTME: Ogg Opus file decoder
// ABOUTME: Decodes Opus files to 48kHz float32 via hraban/opus
package decode

import (
	"bytes"
	"errors"
	"io"

	"github.com/harperreed/wavdeck/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// opus always decodes at 48kHz
const opusSampleRate = 48000

// maximum frame size: 120ms at 48kHz
const opusMaxFrame = 5760

// Opus decodes Ogg Opus files
type Opus struct{}

// Decode reads the whole stream
func (Opus) Decode(r io.ReadSeeker) (*audio.Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, invalid("opus", err)
	}

	channels, err := opusChannels(data)
	if err != nil {
		return nil, invalid("opus", err)
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("opus", err)
	}
	defer stream.Close()

	var samples []float32
	pcm := make([]float32, opusMaxFrame*channels)
	for {
		n, err := stream.ReadFloat32(pcm)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("opus", err)
		}
		samples = append(samples, pcm[:n*channels]...)
	}

	format := audio.Format{
		Codec:      "opus",
		SampleRate: opusSampleRate,
		Channels:   channels,
	}
	return audio.NewTrack(format, samples)
}

// opusChannels reads the channel count from the OpusHead identification
// header at the start of the first Ogg page.
func opusChannels(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("OggS")) {
		return 0, errors.New("missing Ogg capture pattern")
	}
	head := []byte("OpusHead")
	// the header packet lives on the first page, which is at most a few hundred bytes
	window := data[:min(len(data), 512)]
	i := bytes.Index(window, head)
	if i < 0 || i+len(head)+2 > len(data) {
		return 0, errors.New("missing OpusHead")
	}
	channels := int(data[i+len(head)+1])
	if channels < 1 {
		return 0, errors.New("OpusHead reports zero channels")
	}
	return channels, nil
}

// ABOUTME: Tests for the decoder registry and file decoders
// ABOUTME: Round-trips WAV and AIFF files and checks rejection of bad input
package decode

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/harperreed/wavdeck/internal/audiotest"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/audio/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, rate, channels, frames, bitDepth int) (string, *audio.Buffer) {
	t.Helper()
	track, err := audio.NewTrack(audio.Format{SampleRate: rate, Channels: channels},
		audiotest.Sine(rate, channels, frames, 220))
	require.NoError(t, err)
	buf, err := audio.NewBuffer(track, track.Whole())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, encode.WriteWAVFile(path, buf, bitDepth))
	return path, buf
}

func TestDefaultRegistryExtensions(t *testing.T) {
	exts := DefaultRegistry().Extensions()
	for _, ext := range []string{".wav", ".aif", ".aiff", ".mp3", ".flac", ".ogg", ".opus"} {
		assert.Contains(t, exts, ext)
	}
}

func TestRegistryLookupNormalizes(t *testing.T) {
	r := NewRegistry()
	r.Register("WAV", WAV{})

	_, ok := r.Lookup(".wav")
	assert.True(t, ok)
	_, ok = r.Lookup("wav")
	assert.True(t, ok)
	_, ok = r.Lookup(".Wav")
	assert.True(t, ok)
	_, ok = r.Lookup(".mp3")
	assert.False(t, ok)
}

func TestRegistryCustomDecoder(t *testing.T) {
	r := NewRegistry()
	r.Register(".raw", DecoderFunc(func(rs io.ReadSeeker) (*audio.Track, error) {
		data, err := io.ReadAll(rs)
		if err != nil {
			return nil, err
		}
		return audio.NewTrack(audio.Format{SampleRate: 8000, Channels: 1},
			make([]float32, len(data)))
	}))

	path := filepath.Join(t.TempDir(), "x.raw")
	require.NoError(t, os.WriteFile(path, make([]byte, 10), 0o644))

	track, err := r.File(path)
	require.NoError(t, err)
	assert.Equal(t, 10, track.Frames())
}

func TestFileUnsupportedExtension(t *testing.T) {
	_, err := File("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWAVRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		bitDepth int
		delta    float64
	}{
		{"mono 16-bit", 1, 16, 1.0 / 32768},
		{"stereo 16-bit", 2, 16, 1.0 / 32768},
		{"stereo 24-bit", 2, 24, 1.0 / 8388608},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, buf := writeTestWAV(t, 44100, tt.channels, 2000, tt.bitDepth)

			track, err := File(path)
			require.NoError(t, err)

			assert.Equal(t, "wav", track.Format.Codec)
			assert.Equal(t, 44100, track.Format.SampleRate)
			assert.Equal(t, tt.channels, track.Format.Channels)
			assert.Equal(t, tt.bitDepth, track.Format.BitDepth)
			require.Equal(t, 2000, track.Frames())
			for i, s := range track.Samples {
				require.InDelta(t, buf.Samples[i], s, tt.delta, "sample %d", i)
			}
		})
	}
}

func writeTestAIFF(t *testing.T, bitDepth int, pcm []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.aiff")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := aiff.NewEncoder(f, 8000, bitDepth, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           pcm,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestAIFFSamplesAreSigned(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		pcm      []int
		want     []float32
	}{
		{"8-bit", 8, []int{0, 64, -64, 127, -128, 32}, []float32{0, 0.5, -0.5, 127.0 / 128, -1, 0.25}},
		{"16-bit", 16, []int{0, 16384, -16384}, []float32{0, 0.5, -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := File(writeTestAIFF(t, tt.bitDepth, tt.pcm))
			require.NoError(t, err)

			assert.Equal(t, "aiff", track.Format.Codec)
			assert.Equal(t, tt.bitDepth, track.Format.BitDepth)
			assert.InDeltaSlice(t, tt.want, track.Samples, 1e-6)
		})
	}
}

func TestDecodersRejectGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte("not audio "), 64)

	decoders := map[string]Decoder{
		"wav":    WAV{},
		"aiff":   AIFF{},
		"mp3":    MP3{},
		"flac":   FLAC{},
		"vorbis": Vorbis{},
		"opus":   Opus{},
	}

	for name, d := range decoders {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(bytes.NewReader(garbage))
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestOpusChannels(t *testing.T) {
	page := append([]byte("OggS"), make([]byte, 24)...)
	head := append([]byte("OpusHead"), 1, 2, 0x38, 0x01)

	ch, err := opusChannels(append(page, head...))
	require.NoError(t, err)
	assert.Equal(t, 2, ch)

	_, err = opusChannels([]byte("RIFF"))
	assert.Error(t, err)

	_, err = opusChannels(page)
	assert.Error(t, err)
}

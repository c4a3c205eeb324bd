// ABOUTME: WAV export of a sample buffer
// ABOUTME: Writes PCM WAV via the go-audio/wav encoder
package encode

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/harperreed/wavdeck/pkg/audio"
)

// wavFormatPCM is the RIFF audio format tag for integer PCM
const wavFormatPCM = 1

// WriteWAV encodes buf as PCM WAV of bitDepth into w
func WriteWAV(w io.WriteSeeker, buf *audio.Buffer, bitDepth int) error {
	if buf == nil {
		return audio.ErrEmptySelection
	}
	if err := buf.Format.Validate(); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	data, err := Quantize(buf.Samples, bitDepth)
	if err != nil {
		return fmt.Errorf("write wav: %w", err)
	}

	enc := wav.NewEncoder(w, buf.Format.SampleRate, bitDepth, buf.Format.Channels, wavFormatPCM)
	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: buf.Format.Channels,
			SampleRate:  buf.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav header: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes buf into it. A partially written
// file is removed on error.
func WriteWAVFile(path string, buf *audio.Buffer, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", closeErr)
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()

	return WriteWAV(f, buf, bitDepth)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

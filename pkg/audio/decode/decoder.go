// ABOUTME: Decoder interface and extension registry
// ABOUTME: Dispatches files to codec decoders by extension
package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/harperreed/wavdeck/pkg/audio"
)

// Decoder turns a complete encoded file into a Track
type Decoder interface {
	Decode(r io.ReadSeeker) (*audio.Track, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(r io.ReadSeeker) (*audio.Track, error)

// Decode calls f(r)
func (f DecoderFunc) Decode(r io.ReadSeeker) (*audio.Track, error) { return f(r) }

// Registry maps lower-case file extensions (with dot) to decoders
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with every built-in decoder
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", WAV{})
	r.Register(".wave", WAV{})
	r.Register(".aif", AIFF{})
	r.Register(".aiff", AIFF{})
	r.Register(".mp3", MP3{})
	r.Register(".flac", FLAC{})
	r.Register(".ogg", Vorbis{})
	r.Register(".oga", Vorbis{})
	r.Register(".opus", Opus{})
	return r
}

// Register adds or replaces the decoder for ext
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[normalizeExt(ext)] = d
}

// Lookup returns the decoder for ext
func (r *Registry) Lookup(ext string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[normalizeExt(ext)]
	return d, ok
}

// Extensions lists registered extensions in sorted order
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// File opens path and decodes it with the decoder for its extension
func (r *Registry) File(path string) (*audio.Track, error) {
	ext := filepath.Ext(path)
	d, ok := r.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	track, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return track, nil
}

// File decodes path with the default registry
func File(path string) (*audio.Track, error) {
	return defaultRegistry().File(path)
}

var defaultRegistry = sync.OnceValue(DefaultRegistry)

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func invalid(codec string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidFile, codec, err)
}

// ABOUTME: Audio encoder package for exporting selections
// ABOUTME: Quantizes float32 samples and writes PCM WAV files
// Package encode writes audio buffers back to disk.
//
// Supports: 16-bit and 24-bit PCM WAV
//
// Example:
//
//	f, err := os.Create("loop.wav")
//	err = encode.WriteWAV(f, buf, 16)
package encode

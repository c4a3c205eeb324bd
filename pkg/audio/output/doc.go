// ABOUTME: Audio output package for real-time playback
// ABOUTME: Provides callback-driven Device/Stream backends
// Package output opens audio streams that pull blocks of float32 samples
// from a Callback on the backend's real-time thread.
//
// Backends: malgo (default), oto, portaudio (build tag), null and memory.
//
// Example:
//
//	dev, err := output.New("malgo", 512)
//	stream, err := dev.Open(44100, 2, func(out []float32) bool {
//		clear(out)
//		return true
//	})
//	err = stream.Start()
//	defer stream.Close()
package output

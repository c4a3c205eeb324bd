// ABOUTME: Real-time playback engine package
// ABOUTME: Feeds a sample buffer to an output stream with loop, offset and volume
// Package playback plays one audio.Buffer at a time through an output.Device.
//
// The device's real-time thread calls Engine.Fill once per block. Fill only
// touches atomics and the immutable buffer, so it never waits on the control
// methods (Start, Stop, SetVolume) that callers invoke from other goroutines.
//
// Example:
//
//	engine := playback.NewEngine(playback.Config{Device: dev})
//	err := engine.Start(buf, playback.StartOptions{Loop: true, VolumeDB: -3})
//	...
//	engine.Stop()
package playback

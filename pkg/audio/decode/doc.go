// ABOUTME: Audio file decoder package
// ABOUTME: Decodes whole files into normalized float32 tracks
// Package decode loads audio files into audio.Track values.
//
// Supports: WAV, AIFF, MP3, FLAC, Ogg Vorbis, Ogg Opus
//
// Decoders are looked up by file extension in a Registry. Every decoder
// returns interleaved float32 samples normalized to [-1, 1].
//
// Example:
//
//	track, err := decode.File("take1.wav")
//	fmt.Println(track.Format.SampleRate, track.Frames())
package decode

// ABOUTME: Deck package tying a loaded track to the playback engine
// ABOUTME: Owns selection, one-shot marker, volume and export
// Package deck is the caller side of the playback engine. A Player holds
// one loaded track, the current selection and a play-start marker, and
// turns Play/Loop requests into engine sessions.
//
// Example:
//
//	p, err := deck.NewPlayer(deck.Config{Device: dev})
//	err = p.Load("take1.wav")
//	p.Select(500, 1500)
//	err = p.Loop()
package deck

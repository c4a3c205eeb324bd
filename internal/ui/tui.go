// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and forwards deck events into it
package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/wavdeck/pkg/deck"
)

// Run creates the TUI program for ctrl. The caller runs it.
func Run(ctrl Controller) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}

// Forwarder relays deck callbacks into a running program. Its methods match
// deck.Config.OnStateChange and deck.Config.OnError and are no-ops until
// Attach is called.
type Forwarder struct {
	program atomic.Pointer[tea.Program]
}

// NewForwarder creates an unattached forwarder
func NewForwarder() *Forwarder {
	return &Forwarder{}
}

// Attach binds the forwarder to p
func (f *Forwarder) Attach(p *tea.Program) {
	f.program.Store(p)
}

func (f *Forwarder) send(msg tea.Msg) {
	p := f.program.Load()
	if p == nil {
		return
	}
	// Send blocks until the event loop reads it
	go p.Send(msg)
}

// StateChanged forwards a deck status
func (f *Forwarder) StateChanged(st deck.Status) {
	f.send(StatusMsg(st))
}

// Error forwards a background deck error
func (f *Forwarder) Error(err error) {
	f.send(ErrorMsg{Err: err})
}

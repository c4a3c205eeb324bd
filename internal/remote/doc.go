// ABOUTME: Package documentation for the remote control surface
// ABOUTME: Describes the websocket message protocol and discovery
// Package remote exposes a deck over the local network.
//
// Clients connect to /ws and exchange JSON messages of the form
// {"type": ..., "payload": ...}. The server greets each client with a hello
// carrying its id, then pushes a status message after every state change.
// Clients send command messages:
//
//	{"type":"command","payload":{"action":"select","start_ms":500,"end_ms":1500}}
//	{"type":"command","payload":{"action":"loop"}}
//	{"type":"command","payload":{"action":"volume","db":-3}}
//
// Failed commands are answered with an error message. GET /status returns
// the same status document for polling. The service can be advertised over
// mDNS as _wavdeck._tcp.
package remote

// ABOUTME: Websocket client for a remote deck
// ABOUTME: Sends commands, receives status pushes and browses for decks over mDNS
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harperreed/wavdeck/internal/version"
	"github.com/hashicorp/mdns"
)

// Client is a connection to a deck's /ws endpoint
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	// Hello and Initial are the greeting and status received on connect
	Hello   Hello
	Initial Status
}

// Dial connects to addr (host:port) and waits for the server greeting
func Dial(ctx context.Context, addr, name string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Client{conn: conn}
	msg, err := c.Next(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if msg.Type != TypeHello {
		conn.Close()
		return nil, fmt.Errorf("expected %s, got %s", TypeHello, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &c.Hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("invalid hello: %w", err)
	}

	msg, err = c.Next(ctx)
	if err == nil {
		c.Initial, err = msg.Status()
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("initial status: %w", err)
	}

	if name != "" {
		if err := c.send(Message{Type: TypeHello, Payload: Hello{Name: name, Product: version.Product, Version: version.Version}}); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return c, nil
}

// Received is a message read from the server
type Received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Status decodes a status payload
func (r Received) Status() (Status, error) {
	var st Status
	if r.Type != TypeStatus {
		return st, fmt.Errorf("not a status message: %s", r.Type)
	}
	err := json.Unmarshal(r.Payload, &st)
	return st, err
}

// Failure decodes an error payload
func (r Received) Failure() ErrorPayload {
	var e ErrorPayload
	_ = json.Unmarshal(r.Payload, &e)
	return e
}

// Next reads one message. ctx bounds the wait; once it expires the
// connection is unusable.
func (c *Client) Next(ctx context.Context) (Received, error) {
	var msg Received
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return msg, err
	}

	stop := context.AfterFunc(ctx, func() {
		// unblock the read
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.ReadJSON(&msg); err != nil {
		if ctx.Err() != nil {
			return msg, ctx.Err()
		}
		return msg, fmt.Errorf("read failed: %w", err)
	}
	return msg, nil
}

// Send issues a command
func (c *Client) Send(cmd Command) error {
	return c.send(Message{Type: TypeCommand, Payload: cmd})
}

// RequestStatus asks the server for a status message
func (c *Client) RequestStatus() error {
	return c.send(Message{Type: TypeStatus})
}

func (c *Client) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close sends a close frame and closes the connection
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// ServiceInfo describes a discovered deck
type ServiceInfo struct {
	Name string
	Host string
	Port int
}

// Addr returns host:port
func (s ServiceInfo) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Browse queries mDNS for decks until timeout and returns what answered
func Browse(ctx context.Context, timeout time.Duration) ([]ServiceInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var found []ServiceInfo
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		seen := map[string]bool{}
		for entry := range entries {
			if entry.AddrV4 == nil || seen[entry.Name] {
				continue
			}
			seen[entry.Name] = true
			found = append(found, ServiceInfo{
				Name: entry.Name,
				Host: entry.AddrV4.String(),
				Port: entry.Port,
			})
		}
	}()

	params := mdns.DefaultParams(version.ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-collected
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}
	return found, nil
}

// ABOUTME: Remote control server for the deck
// ABOUTME: Websocket command channel with pushed status plus a JSON status endpoint
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/wavdeck/internal/version"
	"github.com/harperreed/wavdeck/pkg/audio"
	"github.com/harperreed/wavdeck/pkg/deck"
	"golang.org/x/sync/errgroup"
)

const (
	writeDeadline   = 10 * time.Second
	pingInterval    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxMessageSize  = 64 << 10
	sendBuffer      = 32
)

// ErrUnknownAction is reported for commands the server does not understand
var ErrUnknownAction = errors.New("unknown action")

// Controller is the subset of deck.Player the remote drives
type Controller interface {
	Status() deck.Status
	Play() error
	Loop() error
	Stop()
	Select(startMs, endMs float64) (audio.Selection, error)
	SetMarker(ms float64) (int, error)
	ClearMarker()
	SetVolume(db float64) (float64, error)
	NudgeVolume(step float64) (float64, error)
}

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Logger     *log.Logger
}

// Server exposes a Controller over HTTP
type Server struct {
	config Config
	ctrl   Controller
	logger *log.Logger

	upgrader websocket.Upgrader

	clients   map[string]*client
	clientsMu sync.RWMutex
}

type client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan Message
}

// New creates a server for ctrl
func New(cfg Config, ctrl Controller) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		config: cfg,
		ctrl:   ctrl,
		logger: logger.WithPrefix("remote"),
		upgrader: websocket.Upgrader{
			// non-browser controllers on the local network send no Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run listens on the configured port and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln, advertising over mDNS when enabled, until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.config.EnableMDNS {
		port := s.config.Port
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
		g.Go(func() error {
			err := Advertise(ctx, AdvertiseConfig{
				ServiceName: s.config.Name,
				Port:        port,
				Logger:      s.logger,
			})
			if err != nil {
				// discovery is optional; keep serving
				s.logger.Warn("mDNS advertisement failed", "err", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeClients()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("stopped")
	return err
}

// Broadcast pushes st to every connected client. It never blocks; a client
// whose buffer is full misses the update.
func (s *Server) Broadcast(st deck.Status) {
	msg := Message{Type: TypeStatus, Payload: NewStatus(st)}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("client send buffer full", "client", c.id)
		}
	}
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewStatus(s.ctrl.Status())); err != nil {
		s.logger.Warn("write status", "err", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	s.logger.Debug("new connection", "remote", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection registers a client and reads its commands until it leaves
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	done := make(chan struct{})
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		close(c.send)
		s.clientsMu.Unlock()
		<-done
		s.logger.Info("client disconnected", "client", c.id, "name", c.name)
	}()

	go func() {
		defer close(done)
		s.clientWriter(c)
	}()

	s.reply(c, Message{Type: TypeHello, Payload: Hello{
		ClientID: c.id,
		Name:     s.config.Name,
		Product:  version.Product,
		Version:  version.Version,
	}})
	s.reply(c, Message{Type: TypeStatus, Payload: NewStatus(s.ctrl.Status())})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "client", c.id, "err", err)
			}
			return
		}
		s.handleMessage(c, data)
	}
}

// clientWriter drains c.send onto the connection
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("marshal message", "type", msg.Type, "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("websocket write", "client", c.id, "err", err)
				// unblock the reader
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (s *Server) reply(c *client, msg Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		s.logger.Warn("client send buffer full", "client", c.id)
	}
}

func (s *Server) replyError(c *client, action string, err error) {
	s.reply(c, Message{Type: TypeError, Payload: ErrorPayload{Action: action, Message: err.Error()}})
}

// handleMessage processes one message from a client
func (s *Server) handleMessage(c *client, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		s.replyError(c, "", fmt.Errorf("invalid message: %w", err))
		return
	}

	switch msg.Type {
	case TypeHello:
		var hello Hello
		if err := json.Unmarshal(msg.Payload, &hello); err != nil {
			s.replyError(c, "", fmt.Errorf("invalid hello: %w", err))
			return
		}
		c.name = hello.Name
		s.logger.Info("client hello", "client", c.id, "name", hello.Name)
	case TypeCommand:
		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.replyError(c, "", fmt.Errorf("invalid command: %w", err))
			return
		}
		if err := s.execute(cmd); err != nil {
			s.logger.Debug("command failed", "client", c.id, "action", cmd.Action, "err", err)
			s.replyError(c, cmd.Action, err)
			return
		}
		// selection, marker and volume changes are not engine transitions
		s.Broadcast(s.ctrl.Status())
	case TypeStatus:
		s.reply(c, Message{Type: TypeStatus, Payload: NewStatus(s.ctrl.Status())})
	default:
		s.replyError(c, "", fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// execute applies cmd to the controller
func (s *Server) execute(cmd Command) error {
	switch cmd.Action {
	case ActionPlay:
		return s.ctrl.Play()
	case ActionLoop:
		return s.ctrl.Loop()
	case ActionStop:
		s.ctrl.Stop()
		return nil
	case ActionSelect:
		_, err := s.ctrl.Select(cmd.StartMs, cmd.EndMs)
		return err
	case ActionMarker:
		if cmd.Clear {
			s.ctrl.ClearMarker()
			return nil
		}
		_, err := s.ctrl.SetMarker(cmd.Ms)
		return err
	case ActionVolume:
		var err error
		if cmd.DB != nil {
			_, err = s.ctrl.SetVolume(*cmd.DB)
		} else {
			_, err = s.ctrl.NudgeVolume(cmd.Step)
		}
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, cmd.Action)
	}
}

// closeClients closes every connection so their handlers return
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
}

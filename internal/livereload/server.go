package livereload

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kiln/pkg/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from whatever origin the dev app is served on.
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Message is the JSON frame sent to browsers.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Log returns a LOG message that browsers print to the console.
func Log(message string) Message {
	return Message{Type: "LOG", Message: message}
}

// Reload returns a RELOAD message that makes browsers refresh.
func Reload() Message {
	return Message{Type: "RELOAD"}
}

// Server pushes live reload messages to connected browsers over
// websockets. It implements http.Handler and can also listen on its own.
type Server struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	httpServer *http.Server
	listener   net.Listener
}

type client struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}
}

// New creates a Server with no clients.
func New() *Server {
	return &Server{clients: make(map[*client]struct{})}
}

// Start listens on the given port in the background. Port 0 picks a free
// port; see Addr.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("LiveReload", err, "Live reload server stopped")
		}
	}()

	logging.Info("LiveReload", "Live reload listening on %s", ln.Addr())
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("LiveReload", "Upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
	if !s.register(c) {
		conn.Close()
		return
	}
	defer s.unregister(c)

	go c.writeLoop()
	c.readLoop()
}

// Broadcast queues msg for every connected client. A client that is not
// keeping up loses its oldest queued message.
func (s *Server) Broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		push(c.send, msg)
	}
	logging.Debug("LiveReload", "Broadcast %s to %d clients", msg.Type, len(s.clients))
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects all clients and stops the listener, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.httpServer
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	close(c.done)
	c.conn.Close()
}

// readLoop consumes control frames until the connection fails.
func (c *client) readLoop() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only goroutine that writes to the connection.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func push(ch chan Message, msg Message) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}

// Package sessiontest provides an in-process game socket server for tests.
package sessiontest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/cardtable/go/internal/session"
)

// DefaultWait bounds every blocking helper.
const DefaultWait = 2 * time.Second

// Frame is a server to client message body.
type Frame map[string]any

// Responder builds the reply to a request. Returning nil sends nothing.
type Responder func(req session.Envelope) Frame

// Server accepts game socket connections and records everything clients send.
type Server struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu         sync.Mutex
	conns      map[*Conn]bool
	responders map[session.MessageType]Responder
	lastQuery  url.Values
	nextID     int

	received  chan session.Envelope
	connected chan *Conn
}

// Conn is one accepted client connection.
type Conn struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewServer starts a server and registers its shutdown with t.
func NewServer(t testing.TB) *Server {
	s := &Server{
		conns:      make(map[*Conn]bool),
		responders: make(map[session.MessageType]Responder),
		received:   make(chan session.Envelope, 256),
		connected:  make(chan *Conn, 16),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// URL is the ws:// address of a game socket on this server.
func (s *Server) URL() string {
	return session.GameEndpoint(s.Host(), false, 7, 42, "secret")
}

// Host returns the host:port the server listens on.
func (s *Server) Host() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
}

// LastQuery returns the query string of the most recent upgrade.
func (s *Server) LastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// Respond answers every request of msgType with fn's frame, stamped with
// reply_to. The frame's message_type defaults to the request's.
func (s *Server) Respond(msgType session.MessageType, fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[msgType] = fn
}

// Push sends frame to every connected client.
func (s *Server) Push(t testing.TB, frame Frame) {
	t.Helper()
	data, err := json.Marshal(s.stamp(frame))
	if err != nil {
		t.Fatalf("marshal push: %v", err)
	}
	s.PushRaw(data)
}

// PushRaw sends data to every connected client unmodified.
func (s *Server) PushRaw(data []byte) {
	s.mu.Lock()
	targets := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("conn_id", c.ID).Msg("test client send buffer full")
		}
	}
}

// Next returns the next frame any client sent.
func (s *Server) Next(t testing.TB) session.Envelope {
	t.Helper()
	select {
	case env := <-s.received:
		return env
	case <-time.After(DefaultWait):
		t.Fatalf("no frame received within %s", DefaultWait)
		return session.Envelope{}
	}
}

// Expect skips frames until one of msgType arrives.
func (s *Server) Expect(t testing.TB, msgType session.MessageType) session.Envelope {
	t.Helper()
	deadline := time.After(DefaultWait)
	for {
		select {
		case env := <-s.received:
			if env.MessageType == msgType {
				return env
			}
		case <-deadline:
			t.Fatalf("no %q frame received within %s", msgType, DefaultWait)
			return session.Envelope{}
		}
	}
}

// ExpectNone fails if a frame of msgType arrives within d.
func (s *Server) ExpectNone(t testing.TB, msgType session.MessageType, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case env := <-s.received:
			if env.MessageType == msgType {
				t.Fatalf("unexpected %q frame: %s", msgType, env.Raw)
			}
		case <-deadline:
			return
		}
	}
}

// WaitConnected blocks until a new client has connected.
func (s *Server) WaitConnected(t testing.TB) *Conn {
	t.Helper()
	select {
	case c := <-s.connected:
		return c
	case <-time.After(DefaultWait):
		t.Fatalf("no client connected within %s", DefaultWait)
		return nil
	}
}

// DropAll closes every client connection without a close handshake.
func (s *Server) DropAll() {
	s.mu.Lock()
	targets := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
		delete(s.conns, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		c.close()
	}
}

// Close drops all clients and stops the listener.
func (s *Server) Close() {
	s.DropAll()
	s.srv.CloseClientConnections()
	s.srv.Close()
}

func (s *Server) stamp(frame Frame) Frame {
	out := make(Frame, len(frame)+2)
	for k, v := range frame {
		out[k] = v
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	if _, ok := out["message_id"]; !ok {
		out["message_id"] = id
	}
	if _, ok := out["timestamp"]; !ok {
		out["timestamp"] = time.Now().UnixMilli()
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("test server failed to upgrade")
		return
	}
	c := &Conn{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.conns[c] = true
	s.lastQuery = r.URL.Query()
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)

	select {
	case s.connected <- c:
	default:
	}
}

func (s *Server) unregister(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) writePump(c *Conn) {
	defer s.unregister(c)
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(DefaultWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) readPump(c *Conn) {
	defer s.unregister(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := session.ParseEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Str("conn_id", c.ID).Msg("test server got undecodable frame")
			continue
		}

		select {
		case s.received <- env:
		default:
			log.Warn().Str("conn_id", c.ID).Msg("test server receive buffer full")
		}

		s.mu.Lock()
		fn := s.responders[env.MessageType]
		s.mu.Unlock()
		if fn == nil {
			continue
		}
		reply := fn(env)
		if reply == nil {
			continue
		}
		reply = s.stamp(reply)
		if _, ok := reply["message_type"]; !ok {
			reply["message_type"] = string(env.MessageType)
		}
		reply["reply_to"] = env.MessageID
		out, err := json.Marshal(reply)
		if err != nil {
			log.Error().Err(err).Msg("test server failed to marshal reply")
			continue
		}
		select {
		case c.send <- out:
		default:
		}
	}
}

package games

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

// fakeConn records outbound messages and delivers pushes synchronously.
type fakeConn struct {
	mu       sync.Mutex
	handlers map[session.MessageType][]*session.Handler
	sent     []session.Outbound
	reply    *session.Reply
	err      error
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[session.MessageType][]*session.Handler)}
}

func (f *fakeConn) Send(_ context.Context, msg session.Outbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeConn) SendAndWait(_ context.Context, msg session.Outbound) (*session.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return nil, f.err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &session.Reply{Envelope: session.Envelope{Header: session.Header{MessageType: msg.MessageType()}}}, nil
}

func (f *fakeConn) OnMessage(msgType session.MessageType, handler session.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &handler
	f.handlers[msgType] = append(f.handlers[msgType], h)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		hs := f.handlers[msgType]
		for i, x := range hs {
			if x == h {
				f.handlers[msgType] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) push(t *testing.T, frame map[string]any) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	env, err := session.ParseEnvelope(data)
	require.NoError(t, err)

	f.mu.Lock()
	hs := append([]*session.Handler(nil), f.handlers[env.MessageType]...)
	f.mu.Unlock()
	for _, h := range hs {
		(*h)(env)
	}
}

func (f *fakeConn) messages() []session.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Outbound(nil), f.sent...)
}

func (f *fakeConn) last(t *testing.T) session.Outbound {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeConn) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, hs := range f.handlers {
		n += len(hs)
	}
	return n
}

// stubUsers resolves from a fixed table and counts lookups.
type stubUsers struct {
	mu    sync.Mutex
	users map[uint64]*models.User
	calls int
}

func newStubUsers(users ...*models.User) *stubUsers {
	s := &stubUsers{users: make(map[uint64]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUsers) FromID(_ context.Context, id uint64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	return u, nil
}

func card(id int, suit cards.Suit, rank cards.Rank) map[string]any {
	return map[string]any{"id": id, "suit": int(suit), "rank": int(rank)}
}

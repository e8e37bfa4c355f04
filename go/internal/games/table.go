package games

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

const resolveTimeout = 10 * time.Second

// Table holds one player's synchronized view of a game of type S. Pushes
// mutate the state under a lock and then notify OnChange listeners.
//
// After a redial the socket re-sends join and the server answers with fresh
// state and synopsis pushes, so Table needs no reconnect handling of its own.
type Table[S any] struct {
	*Controller

	mode   models.GameMode
	userID uint64
	users  UserResolver

	mu    sync.RWMutex
	state S

	lmu       sync.Mutex
	listeners []listener
	nextID    int

	unsubs    []func()
	closeOnce sync.Once
}

type listener struct {
	id int
	fn func()
}

func newTable[S any](mode models.GameMode, conn Conn, userID uint64, users UserResolver, initial S) *Table[S] {
	return &Table[S]{
		Controller: NewController(conn),
		mode:       mode,
		userID:     userID,
		users:      users,
		state:      initial,
	}
}

func (t *Table[S]) Mode() models.GameMode {
	return t.mode
}

func (t *Table[S]) UserID() uint64 {
	return t.userID
}

// View runs fn with read access to the state. fn must not retain S.
func (t *Table[S]) View(fn func(*S)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(&t.state)
}

// OnChange registers fn to run after every applied push. The returned
// function removes it.
func (t *Table[S]) OnChange(fn func()) func() {
	t.lmu.Lock()
	t.nextID++
	id := t.nextID
	t.listeners = append(t.listeners, listener{id: id, fn: fn})
	t.lmu.Unlock()

	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		for i, l := range t.listeners {
			if l.id == id {
				t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close unsubscribes from the socket, drops listeners and closes the socket.
func (t *Table[S]) Close() error {
	var err error
	t.closeOnce.Do(func() {
		for _, unsub := range t.unsubs {
			unsub()
		}
		t.lmu.Lock()
		t.listeners = nil
		t.lmu.Unlock()
		err = t.Controller.Close()
	})
	return err
}

// handle subscribes decode to each message type. Decoding errors drop the push.
func (t *Table[S]) handle(decode func(session.Envelope) error, types ...session.MessageType) {
	for _, msgType := range types {
		t.unsubs = append(t.unsubs, t.conn.OnMessage(msgType, func(env session.Envelope) {
			if err := decode(env); err != nil {
				log.Warn().
					Err(err).
					Str("game_mode", string(t.mode)).
					Str("message_type", string(env.MessageType)).
					Int("message_id", env.MessageID).
					Msg("dropping push")
			}
		}))
	}
}

// apply mutates the state and then notifies listeners.
func (t *Table[S]) apply(fn func(*S)) {
	t.mu.Lock()
	fn(&t.state)
	t.mu.Unlock()

	t.lmu.Lock()
	fns := make([]func(), len(t.listeners))
	for i, l := range t.listeners {
		fns[i] = l.fn
	}
	t.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// isMe reports whether id is the local user.
func (t *Table[S]) isMe(id uint64) bool {
	return id != 0 && id == t.userID
}

// user resolves a profile, falling back to a bare id when the lookup fails.
func (t *Table[S]) user(id uint64) *models.User {
	if id == 0 {
		return nil
	}
	if t.users == nil {
		return &models.User{ID: id}
	}
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	u, err := t.users.FromID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Uint64("user_id", id).Msg("failed to resolve user")
		return &models.User{ID: id}
	}
	return u
}

func (t *Table[S]) usersOf(ids []uint64) []*models.User {
	if ids == nil {
		return nil
	}
	out := make([]*models.User, len(ids))
	for i, id := range ids {
		out[i] = t.user(id)
	}
	return out
}

// Package games exposes each card game's remote verbs and keeps the
// player's view of the table in sync with the server's pushes.
package games

import (
	"context"

	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

// Conn is the socket a controller drives. *session.Multiplexer satisfies it.
type Conn interface {
	Send(ctx context.Context, msg session.Outbound) error
	SendAndWait(ctx context.Context, msg session.Outbound) (*session.Reply, error)
	OnMessage(msgType session.MessageType, handler session.Handler) func()
	Close() error
}

var _ Conn = (*session.Multiplexer)(nil)

// UserResolver turns the user ids embedded in pushes into profiles.
// *users.App satisfies it.
type UserResolver interface {
	FromID(ctx context.Context, id uint64) (*models.User, error)
}

package games

import (
	"context"
	"fmt"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

// Game is what every per-game controller offers regardless of mode.
type Game interface {
	Mode() models.GameMode
	UserID() uint64
	MyTurn() bool
	Cards() []*cards.Card
	OnChange(fn func()) func()
	OnMessage(msgType session.MessageType, handler session.Handler) func()

	Admit(ctx context.Context, player uint64, admit, playing bool) error
	Ready(ctx context.Context, ready bool) error
	Start(ctx context.Context) (*session.Reply, error)
	Cancel(ctx context.Context) error
	Peek(ctx context.Context) (*session.Reply, error)
	Countback(ctx context.Context, value int) error
	Close() error
}

// Sorter is implemented by games that let the player reorder their hand.
type Sorter interface {
	Sort(ctx context.Context, order ...int) (*session.Reply, error)
}

var (
	_ Game   = (*Gin)(nil)
	_ Game   = (*Hearts)(nil)
	_ Game   = (*Spades)(nil)
	_ Game   = (*EightJacks)(nil)
	_ Game   = (*ThreeThirteen)(nil)
	_ Sorter = (*Gin)(nil)
	_ Sorter = (*EightJacks)(nil)
)

// Open builds the controller for mode on top of conn.
func Open(mode models.GameMode, conn Conn, userID uint64, users UserResolver) (Game, error) {
	switch mode {
	case models.GameModeGin:
		return NewGin(conn, userID, users), nil
	case models.GameModeHearts:
		return NewHearts(conn, userID, users), nil
	case models.GameModeSpades:
		return NewSpades(conn, userID, users), nil
	case models.GameModeEightJacks:
		return NewEightJacks(conn, userID, users), nil
	case models.GameModeThreeThirteen:
		return NewThreeThirteen(conn, userID, users), nil
	default:
		return nil, fmt.Errorf("unsupported game mode %q", mode)
	}
}

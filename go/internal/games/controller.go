package games

import (
	"context"

	"github.com/mcdev12/cardtable/go/internal/session"
)

// Controller maps the verbs every game shares onto messages. Per-game
// controllers embed it.
type Controller struct {
	conn Conn
}

func NewController(conn Conn) *Controller {
	return &Controller{conn: conn}
}

// Conn exposes the underlying socket.
func (c *Controller) Conn() Conn {
	return c.conn
}

func (c *Controller) Admit(ctx context.Context, player uint64, admit, playing bool) error {
	return c.conn.Send(ctx, AdmitRequest{TargetID: player, Admit: admit, Playing: playing})
}

func (c *Controller) Ready(ctx context.Context, ready bool) error {
	return c.conn.Send(ctx, ReadyRequest{Ready: ready})
}

// BindRequest asks to share controls with target.
func (c *Controller) BindRequest(ctx context.Context, target uint64) error {
	return c.conn.Send(ctx, BindRequest{TargetID: target})
}

func (c *Controller) BindAccept(ctx context.Context, initiator uint64) error {
	return c.conn.Send(ctx, BindAcceptRequest{InitiatorID: initiator})
}

func (c *Controller) UnbindRequest(ctx context.Context, peer uint64) error {
	return c.conn.Send(ctx, UnbindRequest{PeerID: peer})
}

func (c *Controller) Start(ctx context.Context) (*session.Reply, error) {
	return c.conn.SendAndWait(ctx, StartRequest{})
}

func (c *Controller) Cancel(ctx context.Context) error {
	return c.conn.Send(ctx, CancelRequest{})
}

// Peek asks the server to resend the current state.
func (c *Controller) Peek(ctx context.Context) (*session.Reply, error) {
	return c.conn.SendAndWait(ctx, PeekRequest{})
}

// Countback answers a countdown push.
func (c *Controller) Countback(ctx context.Context, value int) error {
	return c.conn.Send(ctx, CountbackRequest{Value: value})
}

func (c *Controller) OnMessage(msgType session.MessageType, handler session.Handler) func() {
	return c.conn.OnMessage(msgType, handler)
}

func (c *Controller) Close() error {
	return c.conn.Close()
}

package games

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/cardtable/go/internal/session"
)

const countbackTimeout = 5 * time.Second

// Countbacker is satisfied by Controller and every Game.
type Countbacker interface {
	OnMessage(msgType session.MessageType, handler session.Handler) func()
	Countback(ctx context.Context, value int) error
}

// AutoCountback answers every countdown push with a countback carrying the
// same value, the way the pregame lobby acknowledges it. The returned
// function stops it.
func AutoCountback(c Countbacker) func() {
	return c.OnMessage(session.MessageCountdown, func(env session.Envelope) {
		var p session.CountdownPayload
		if err := env.Decode(&p); err != nil {
			log.Warn().Err(err).Msg("dropping malformed countdown")
			return
		}
		// Handlers run on the dispatch goroutine; sending must not block it.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), countbackTimeout)
			defer cancel()
			if err := c.Countback(ctx, p.Value); err != nil {
				log.Warn().Err(err).Int("value", p.Value).Msg("failed to send countback")
			}
		}()
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/cardtable/go/internal/games"
	"github.com/mcdev12/cardtable/go/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a game, printing every push and the hand after each change",
	Long: `watch joins the game and stays connected until interrupted. Countdowns
are answered automatically so the game can start. The server replays the
current state in answer to the join sent on connect.

Examples:
  cardtable watch --game 12
  cardtable watch --code ABCD --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		t, err := openTable(ctx)
		if err != nil {
			return err
		}
		defer t.close()

		games.AutoCountback(t.game)
		t.mux.OnReconnect(func() {
			log.Info().Str("conn_id", t.mux.ID()).Msg("reconnected, rejoining game")
		})

		t.game.OnMessage(session.AnyMessage, func(env session.Envelope) {
			log.Info().
				Str("message_type", string(env.MessageType)).
				Int("message_id", env.MessageID).
				Int("reply_to", env.ReplyTo).
				Msg("push")
			log.Debug().RawJSON("frame", env.Raw).Msg("push body")

			line, err := describePush(env)
			if err != nil {
				log.Debug().Err(err).Str("message_type", string(env.MessageType)).Msg("push not described")
				return
			}
			if line != "" {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		})
		t.game.OnChange(func() {
			renderHand(cmd.OutOrStdout(), t.game.Cards(), t.game.MyTurn())
		})

		if err := t.start(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("leaving game")
			return nil
		case <-t.mux.Done():
			return t.mux.Err()
		}
	},
}

func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, cfg.Connection.RequestTimeout)
}

// startAndWaitForState starts the table and blocks until the first push
// changes the game, which follows the join sent on connect.
func startAndWaitForState(ctx context.Context, t *table) error {
	changed := make(chan struct{}, 1)
	stop := t.game.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stop()

	if err := t.start(ctx); err != nil {
		return err
	}
	select {
	case <-changed:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no game state received: %w", ctx.Err())
	}
}

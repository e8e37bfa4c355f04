package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var notReady bool

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Mark the player ready to start, or not ready with --not",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		t, err := openTable(ctx)
		if err != nil {
			return err
		}
		defer t.close()

		if err := t.start(ctx); err != nil {
			return err
		}
		if err := t.game.Ready(ctx, !notReady); err != nil {
			return err
		}
		log.Info().Bool("ready", !notReady).Msg("sent ready")
		return nil
	},
}

func init() {
	readyCmd.Flags().BoolVar(&notReady, "not", false, "withdraw readiness")
}

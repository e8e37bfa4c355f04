package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Ask the server for the current game state and print the reply",
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
		reply, err := t.game.Peek(ctx)
		if err != nil {
			return err
		}
		if err := reply.Err(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(reply.Raw))
		return nil
	},
}

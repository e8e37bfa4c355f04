package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcdev12/cardtable/go/internal/games"
)

var sortOrder []int

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Move cards to the front of the hand (gin and eight jacks)",
	Long: `sort moves the given card ids to the front of the hand in that order and
tells the server the resulting order.

Example:
  cardtable sort --game 12 --order 3,1,2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(sortOrder) == 0 {
			return fmt.Errorf("--order is required")
		}

		ctx, cancel := requestContext(cmd.Context())
		defer cancel()

		t, err := openTable(ctx)
		if err != nil {
			return err
		}
		defer t.close()

		sorter, ok := t.game.(games.Sorter)
		if !ok {
			return fmt.Errorf("%s hands cannot be sorted", t.game.Mode())
		}
		if err := startAndWaitForState(ctx, t); err != nil {
			return err
		}
		reply, err := sorter.Sort(ctx, sortOrder...)
		if err != nil {
			return err
		}
		if err := reply.Err(); err != nil {
			return err
		}
		renderHand(cmd.OutOrStdout(), t.game.Cards(), t.game.MyTurn())
		return nil
	},
}

func init() {
	sortCmd.Flags().IntSliceVar(&sortOrder, "order", nil, "card ids to move to the front")
}

package games

import (
	"context"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/session"
)

func mergeInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// sortHand reorders the held hand locally, then reports the full order.
func sortHand[S any](ctx context.Context, t *Table[S], hand func(*S) *cards.Hand, order []int) (*session.Reply, error) {
	var ids []int
	t.apply(func(s *S) {
		h := hand(s)
		h.SortToFront(order...)
		ids = h.IDs()
	})
	return t.conn.SendAndWait(ctx, SortRequest{Order: ids})
}

func decodeHistory(history [][]*cards.Card) []*cards.Hand {
	if history == nil {
		return nil
	}
	out := make([]*cards.Hand, len(history))
	for i, trick := range history {
		out[i] = &cards.Hand{Cards: trick}
	}
	return out
}

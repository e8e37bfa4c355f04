package cards

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Hand is an ordered collection of cards. Order matters for rendering but
// not across server pushes: membership is keyed on card id.
//
// Callers (selection state, animation keys) hold *Card references into a
// Hand, so the reconciliation methods mutate cards in place instead of
// replacing them.
type Hand struct {
	Cards []*Card
}

// NewHand returns a hand holding the given cards. The slice is copied.
func NewHand(cards ...*Card) *Hand {
	return &Hand{Cards: slices.Clone(cards)}
}

// DecodeHand parses a wire hand (a JSON array of cards).
func DecodeHand(data []byte) (*Hand, error) {
	h := &Hand{}
	if err := json.Unmarshal(data, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hand) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Cards)
}

// IDs returns the ids of all dealt cards in hand order. Placeholders are skipped.
func (h *Hand) IDs() []int {
	if h == nil {
		return nil
	}
	ids := make([]int, 0, len(h.Cards))
	for _, c := range h.Cards {
		if id, ok := c.IDValue(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// FindByID returns the card with the given id and its index, or nil and -1.
func (h *Hand) FindByID(id int) (*Card, int) {
	if h == nil {
		return nil, -1
	}
	for i, c := range h.Cards {
		if cid, ok := c.IDValue(); ok && cid == id {
			return c, i
		}
	}
	return nil, -1
}

// FindCard returns the first card with the given suit and rank.
func (h *Hand) FindCard(suit Suit, rank Rank) *Card {
	if h == nil {
		return nil
	}
	for _, c := range h.Cards {
		if c.Suit == suit && c.Rank == rank {
			return c
		}
	}
	return nil
}

// Index returns the position of card (by identity) or -1.
func (h *Hand) Index(card *Card) int {
	if h == nil {
		return -1
	}
	return slices.Index(h.Cards, card)
}

// Sort orders the hand ascending with a stable insertion sort driven by
// Card.Compare. Hands are small (about 20 cards) so O(n^2) is fine.
func (h *Hand) Sort(bySuit, aceHigh bool) {
	for i := 1; i < len(h.Cards); i++ {
		current := h.Cards[i]
		j := i - 1
		for j >= 0 && h.Cards[j].Compare(current, bySuit, aceHigh) > 0 {
			h.Cards[j+1] = h.Cards[j]
			j--
		}
		h.Cards[j+1] = current
	}
}

// SortToFront moves the cards with the given ids to the front of the hand in
// the given order. Repeated and unknown ids are ignored. The remaining cards
// keep their relative order after the moved prefix.
func (h *Hand) SortToFront(ids ...int) {
	seen := make(map[int]bool, len(ids))
	targets := make([]*Card, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, _ := h.FindByID(id); c != nil {
			targets = append(targets, c)
		}
	}
	h.moveToFront(targets)
}

// SortCardsToFront is SortToFront keyed on card identity, which also works
// for placeholder cards without ids.
func (h *Hand) SortCardsToFront(cards ...*Card) {
	targets := make([]*Card, 0, len(cards))
	for _, c := range cards {
		if c == nil || slices.Contains(targets, c) || h.Index(c) < 0 {
			continue
		}
		targets = append(targets, c)
	}
	h.moveToFront(targets)
}

// moveToFront expects targets to be distinct members of h.
func (h *Hand) moveToFront(targets []*Card) {
	if len(targets) == 0 {
		return
	}
	reordered := make([]*Card, 0, len(h.Cards))
	reordered = append(reordered, targets...)
	for _, c := range h.Cards {
		if !slices.Contains(targets, c) {
			reordered = append(reordered, c)
		}
	}
	copy(h.Cards, reordered)
}

// SetCardsTo reconciles the hand with an authoritative snapshot.
//
// Held cards whose id appears in goal keep their object identity and take
// the goal's suit and rank. Held cards missing from goal are dropped. Goal
// cards new to this hand are appended at the end in goal order; their
// position within goal is not preserved. A nil or empty goal clears the hand.
func (h *Hand) SetCardsTo(goal *Hand) {
	if goal.Len() == 0 {
		clear(h.Cards)
		h.Cards = h.Cards[:0]
		return
	}

	pool := slices.Clone(goal.Cards)
	var unmatched []int
	for i, held := range h.Cards {
		j := indexOfID(pool, held)
		if j < 0 {
			unmatched = append(unmatched, i)
			continue
		}
		held.Suit = pool[j].Suit
		held.Rank = pool[j].Rank
		pool = slices.Delete(pool, j, j+1)
	}

	// Descending so earlier indices stay valid.
	for k := len(unmatched) - 1; k >= 0; k-- {
		i := unmatched[k]
		h.Cards = slices.Delete(h.Cards, i, i+1)
	}

	h.Cards = append(h.Cards, pool...)
}

func indexOfID(pool []*Card, card *Card) int {
	id, ok := card.IDValue()
	if !ok {
		return -1
	}
	for j, c := range pool {
		if cid, ok := c.IDValue(); ok && cid == id {
			return j
		}
	}
	return -1
}

func (h *Hand) String() string {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, c := range h.Cards {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (h *Hand) MarshalJSON() ([]byte, error) {
	if h == nil || h.Cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.Cards)
}

func (h *Hand) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		h.Cards = nil
		return nil
	}
	var cards []*Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return fmt.Errorf("decode hand: %w", err)
	}
	for i, c := range cards {
		if c == nil {
			return fmt.Errorf("%w: null entry at index %d", ErrInvalidCard, i)
		}
	}
	h.Cards = cards
	return nil
}

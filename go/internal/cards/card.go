package cards

import (
	"cmp"
	"encoding/json"
	"fmt"
)

// Card is a single playing card. ID is assigned by the server once the
// physical card is dealt; a nil ID marks a client-local placeholder.
//
// Two cards may share suit and rank (multiple decks, jokers), so ID is the
// only unique key.
type Card struct {
	ID   *int `json:"id"`
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// New returns a dealt card with a server id.
func New(id int, suit Suit, rank Rank) *Card {
	return &Card{ID: &id, Suit: suit, Rank: rank}
}

// Placeholder returns a card without an id, used for local scratch state.
func Placeholder(suit Suit, rank Rank) *Card {
	return &Card{Suit: suit, Rank: rank}
}

// HasID reports whether the server assigned this card an id.
func (c *Card) HasID() bool {
	return c.ID != nil
}

// IDValue returns the card id and whether it is set.
func (c *Card) IDValue() (int, bool) {
	if c.ID == nil {
		return 0, false
	}
	return *c.ID, true
}

// Copy returns a new card with the same id, suit and rank.
func (c *Card) Copy() *Card {
	out := &Card{Suit: c.Suit, Rank: c.Rank}
	if c.ID != nil {
		id := *c.ID
		out.ID = &id
	}
	return out
}

func (c *Card) IsJoker() bool {
	return c.Rank == JokerRank
}

func (c *Card) String() string {
	if c.Rank == JokerRank {
		if c.Suit == FancySuit {
			return "special joker"
		}
		return "joker"
	}
	return c.Rank.String() + " of " + c.Suit.String()
}

// Compare orders two cards and returns -1, 0 or +1.
//
// Precedence: identical suit and rank are equal; a joker is always high and
// two jokers are equal, whatever the flags; with bySuit, unequal suits decide
// by suit value; with aceHigh, an ace beats any other rank of the same suit
// (or of any suit when bySuit is false); otherwise rank value decides.
func (c *Card) Compare(other *Card, bySuit, aceHigh bool) int {
	if c.Suit == other.Suit && c.Rank == other.Rank {
		return 0
	}

	if c.IsJoker() || other.IsJoker() {
		switch {
		case c.IsJoker() && other.IsJoker():
			return 0
		case c.IsJoker():
			return 1
		default:
			return -1
		}
	}

	if bySuit && c.Suit != other.Suit {
		return cmp.Compare(c.Suit, other.Suit)
	}

	if aceHigh && (c.Rank == AceRank || other.Rank == AceRank) {
		switch {
		case c.Rank == other.Rank:
			return 0
		case c.Rank == AceRank:
			return 1
		default:
			return -1
		}
	}

	return cmp.Compare(c.Rank, other.Rank)
}

// DecodeCard parses a single wire card.
func DecodeCard(data []byte) (*Card, error) {
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	return &c, nil
}

package cards

import (
	"encoding/json"
	"fmt"
)

// Suit is the wire value of a card suit.
type Suit int

const (
	NoneSuit     Suit = iota // 0
	ClubsSuit                // 1
	HeartsSuit               // 2
	SpadesSuit               // 3
	DiamondsSuit             // 4
	FancySuit                // 5, only used by the special joker
)

// StandardSuits lists the four suits of a regular deck in wire order.
var StandardSuits = [...]Suit{ClubsSuit, HeartsSuit, SpadesSuit, DiamondsSuit}

var suitNames = [...]string{"none", "clubs", "hearts", "spades", "diamonds", "fancy"}
var suitSymbols = [...]string{"?", "♣", "♥", "♠", "♦", "★"}

func (s Suit) Valid() bool {
	return s >= NoneSuit && s <= FancySuit
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("suit(%d)", int(s))
	}
	return suitNames[s]
}

// Symbol returns the unicode glyph for the suit.
func (s Suit) Symbol() string {
	if !s.Valid() {
		return "?"
	}
	return suitSymbols[s]
}

// Red reports whether the suit is printed in red.
func (s Suit) Red() bool {
	return s == HeartsSuit || s == DiamondsSuit
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode suit: %w", err)
	}
	if !Suit(v).Valid() {
		return fmt.Errorf("%w: suit %d", ErrInvalidCard, v)
	}
	*s = Suit(v)
	return nil
}

// Rank is the wire value of a card rank. Ace is low on the wire; ace-high
// ordering is a comparison option.
type Rank int

const (
	NoneRank  Rank = iota // 0
	AceRank               // 1
	TwoRank               // 2
	ThreeRank             // 3
	FourRank              // 4
	FiveRank              // 5
	SixRank               // 6
	SevenRank             // 7
	EightRank             // 8
	NineRank              // 9
	TenRank               // 10
	JackRank              // 11
	QueenRank             // 12
	KingRank              // 13
	JokerRank             // 14
)

// StandardRanks lists the thirteen ranks of a regular deck, ace low.
var StandardRanks = [...]Rank{AceRank, TwoRank, ThreeRank, FourRank, FiveRank, SixRank, SevenRank, EightRank, NineRank, TenRank, JackRank, QueenRank, KingRank}

var rankNames = [...]string{"none", "ace", "2", "3", "4", "5", "6", "7", "8", "9", "10", "jack", "queen", "king", "joker"}
var rankShort = [...]string{"?", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "JK"}

func (r Rank) Valid() bool {
	return r >= NoneRank && r <= JokerRank
}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankNames[r]
}

// Short returns the one or two character face label.
func (r Rank) Short() string {
	if !r.Valid() {
		return "?"
	}
	return rankShort[r]
}

func (r *Rank) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode rank: %w", err)
	}
	if !Rank(v).Valid() {
		return fmt.Errorf("%w: rank %d", ErrInvalidCard, v)
	}
	*r = Rank(v)
	return nil
}

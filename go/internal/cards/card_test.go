package cards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *Card
		bySuit  bool
		aceHigh bool
		want    int
	}{
		{
			name:    "ace beats king of same suit when ace high",
			a:       Placeholder(SpadesSuit, AceRank),
			b:       Placeholder(SpadesSuit, KingRank),
			bySuit:  true,
			aceHigh: true,
			want:    1,
		},
		{
			name: "ace is low without ace high",
			a:    Placeholder(SpadesSuit, AceRank),
			b:    Placeholder(SpadesSuit, KingRank),
			want: -1,
		},
		{
			name: "jokers of different suits are equal",
			a:    Placeholder(ClubsSuit, JokerRank),
			b:    Placeholder(DiamondsSuit, JokerRank),
			want: 0,
		},
		{
			name:    "joker beats ace regardless of flags",
			a:       Placeholder(NoneSuit, JokerRank),
			b:       Placeholder(DiamondsSuit, AceRank),
			bySuit:  true,
			aceHigh: true,
			want:    1,
		},
		{
			name:   "suit decides before rank",
			a:      Placeholder(ClubsSuit, KingRank),
			b:      Placeholder(HeartsSuit, TwoRank),
			bySuit: true,
			want:   -1,
		},
		{
			name:    "ace high is scoped to suit",
			a:       Placeholder(HeartsSuit, AceRank),
			b:       Placeholder(SpadesSuit, TwoRank),
			bySuit:  true,
			aceHigh: true,
			want:    -1,
		},
		{
			name:    "two aces are equal without suit ordering",
			a:       Placeholder(HeartsSuit, AceRank),
			b:       Placeholder(SpadesSuit, AceRank),
			aceHigh: true,
			want:    0,
		},
		{
			name: "same rank different suit without suit ordering",
			a:    Placeholder(HeartsSuit, SevenRank),
			b:    Placeholder(ClubsSuit, SevenRank),
			want: 0,
		},
		{
			name:   "identical cards",
			a:      New(1, HeartsSuit, SevenRank),
			b:      New(2, HeartsSuit, SevenRank),
			bySuit: true,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b, tt.bySuit, tt.aceHigh))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a, tt.bySuit, tt.aceHigh))
		})
	}
}

func TestCompareAntisymmetricAcrossDeck(t *testing.T) {
	var deck []*Card
	for _, s := range StandardSuits {
		for _, r := range StandardRanks {
			deck = append(deck, Placeholder(s, r))
		}
	}
	deck = append(deck, Placeholder(NoneSuit, JokerRank), Placeholder(FancySuit, JokerRank))

	for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		for _, a := range deck {
			for _, b := range deck {
				ab := a.Compare(b, flags[0], flags[1])
				ba := b.Compare(a, flags[0], flags[1])
				require.Equal(t, ab, -ba, "%s vs %s flags=%v", a, b, flags)
				if a.IsJoker() && !b.IsJoker() {
					require.Equal(t, 1, ab, "joker must be high: %s vs %s", a, b)
				}
			}
		}
	}
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "queen of hearts", Placeholder(HeartsSuit, QueenRank).String())
	assert.Equal(t, "joker", Placeholder(NoneSuit, JokerRank).String())
	assert.Equal(t, "special joker", Placeholder(FancySuit, JokerRank).String())
}

func TestCardWire(t *testing.T) {
	c, err := DecodeCard([]byte(`{"id":7,"suit":3,"rank":1}`))
	require.NoError(t, err)
	id, ok := c.IDValue()
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, SpadesSuit, c.Suit)
	assert.Equal(t, AceRank, c.Rank)

	c, err = DecodeCard([]byte(`{"id":null,"suit":2,"rank":14}`))
	require.NoError(t, err)
	assert.False(t, c.HasID())

	out, err := json.Marshal(Placeholder(DiamondsSuit, TenRank))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"suit":4,"rank":10}`, string(out))

	_, err = DecodeCard([]byte(`{"id":1,"suit":9,"rank":1}`))
	assert.ErrorIs(t, err, ErrInvalidCard)
	_, err = DecodeCard([]byte(`{"id":1,"suit":1,"rank":15}`))
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestCopyDetachesID(t *testing.T) {
	orig := New(3, ClubsSuit, FiveRank)
	dup := orig.Copy()
	*dup.ID = 4
	id, _ := orig.IDValue()
	assert.Equal(t, 3, id)
}

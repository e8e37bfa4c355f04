package games

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		mode models.GameMode
		want any
	}{
		{models.GameModeGin, &Gin{}},
		{models.GameModeHearts, &Hearts{}},
		{models.GameModeSpades, &Spades{}},
		{models.GameModeEightJacks, &EightJacks{}},
		{models.GameModeThreeThirteen, &ThreeThirteen{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			game, err := Open(tt.mode, newFakeConn(), 42, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, game)
			assert.Equal(t, tt.mode, game.Mode())
			assert.Equal(t, uint64(42), game.UserID())
		})
	}

	_, err := Open("poker", newFakeConn(), 42, nil)
	assert.Error(t, err)
}

func TestOnChange(t *testing.T) {
	conn := newFakeConn()
	g := NewGin(conn, 42, nil)

	var first, second int
	stop := g.OnChange(func() { first++ })
	g.OnChange(func() { second++ })

	conn.push(t, ginState(card(1, cards.ClubsSuit, cards.AceRank)))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	stop()
	conn.push(t, ginState(card(1, cards.ClubsSuit, cards.AceRank)))
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestOnChangeCanReadState(t *testing.T) {
	conn := newFakeConn()
	g := NewGin(conn, 42, nil)

	var seen int
	g.OnChange(func() { seen = len(g.Cards()) })
	conn.push(t, ginState(card(1, cards.ClubsSuit, cards.AceRank), card(2, cards.ClubsSuit, cards.TwoRank)))
	assert.Equal(t, 2, seen)
}

func TestMalformedPushIsDropped(t *testing.T) {
	conn := newFakeConn()
	g := NewGin(conn, 42, nil)
	conn.push(t, ginState(card(1, cards.ClubsSuit, cards.AceRank)))

	var changes int
	g.OnChange(func() { changes++ })
	conn.push(t, map[string]any{"message_type": "state", "hand": "not a hand"})

	assert.Zero(t, changes)
	assert.Equal(t, []int{1}, cardIDs(g.Cards()))
}

func TestMyTurnIgnoresUnsetTurn(t *testing.T) {
	conn := newFakeConn()
	g := NewGin(conn, 0, nil)
	assert.False(t, g.MyTurn())
}

func TestCloseUnsubscribes(t *testing.T) {
	conn := newFakeConn()
	g := NewSpades(conn, 42, nil)
	require.NotZero(t, conn.subscribers())

	var changes int
	g.OnChange(func() { changes++ })

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Zero(t, conn.subscribers())
	assert.True(t, conn.closed)

	conn.push(t, map[string]any{"message_type": "state", "turn": 42})
	assert.Zero(t, changes)
}

func TestControllerVerbs(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn)
	ctx := context.Background()

	require.NoError(t, c.Admit(ctx, 9, true, false))
	require.NoError(t, c.Ready(ctx, true))
	require.NoError(t, c.BindRequest(ctx, 9))
	require.NoError(t, c.BindAccept(ctx, 9))
	require.NoError(t, c.UnbindRequest(ctx, 9))
	require.NoError(t, c.Cancel(ctx))
	require.NoError(t, c.Countback(ctx, 2))
	_, err := c.Start(ctx)
	require.NoError(t, err)
	_, err = c.Peek(ctx)
	require.NoError(t, err)

	assert.Equal(t, []any{
		AdmitRequest{TargetID: 9, Admit: true},
		ReadyRequest{Ready: true},
		BindRequest{TargetID: 9},
		BindAcceptRequest{InitiatorID: 9},
		UnbindRequest{PeerID: 9},
		CancelRequest{},
		CountbackRequest{Value: 2},
		StartRequest{},
		PeekRequest{},
	}, toAny(conn.messages()))
	assert.Same(t, conn, c.Conn())
}

func TestAutoCountback(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn)
	stop := AutoCountback(c)

	conn.push(t, map[string]any{"message_type": "countdown", "value": 3})
	require.Eventually(t, func() bool {
		msgs := conn.messages()
		return len(msgs) == 1 && msgs[0] == CountbackRequest{Value: 3}
	}, time.Second, 5*time.Millisecond)

	stop()
	conn.push(t, map[string]any{"message_type": "countdown", "value": 2})
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, conn.messages(), 1)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

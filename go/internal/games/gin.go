package games

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

type GinState struct {
	Started  bool
	Dealt    bool
	LaidDown bool
	Finished bool

	LaidDownID   uint64
	LaidDownUser *models.User

	// Hand and Discard keep their identity for the life of the game.
	Hand            *cards.Hand
	Drawn           *cards.Card
	PickedUpDiscard bool
	RoundScore      int
	Score           int
	Turn            uint64
	Dealer          uint64
	Discard         *cards.Hand
	Config          json.RawMessage

	Synopsis GinSynopsis
}

type GinSynopsis struct {
	Players   []GinPlayer
	Remaining int
	Discarded int
	Round     int
}

type GinPlayer struct {
	User        *models.User
	Playing     bool
	PlayerIndex int
	IsTurn      bool
	IsDealer    bool
	Hand        *cards.Hand
	RoundScore  int
	Score       int
	HasLaidDown bool
}

type ginStateMessage struct {
	Started         bool            `json:"started"`
	Dealt           bool            `json:"dealt"`
	LaidDown        bool            `json:"laid_down"`
	LaidDownID      uint64          `json:"laid_down_id"`
	Finished        bool            `json:"finished"`
	Hand            *cards.Hand     `json:"hand"`
	Drawn           *cards.Card     `json:"drawn"`
	PickedUpDiscard bool            `json:"picked_up_discard"`
	RoundScore      int             `json:"round_score"`
	Score           int             `json:"score"`
	Turn            uint64          `json:"turn"`
	Dealer          uint64          `json:"dealer"`
	Discard         *cards.Hand     `json:"discard"`
	Config          json.RawMessage `json:"config"`
}

type ginPlayerMessage struct {
	UID         uint64      `json:"user"`
	Playing     bool        `json:"playing"`
	PlayerIndex int         `json:"player_index"`
	IsTurn      bool        `json:"is_turn"`
	IsDealer    bool        `json:"is_dealer"`
	Hand        *cards.Hand `json:"hand"`
	RoundScore  int         `json:"round_score"`
	Score       int         `json:"score"`
}

type ginSynopsisMessage struct {
	Players   []ginPlayerMessage `json:"players"`
	Remaining *int               `json:"remaining"`
	Discarded *int               `json:"discarded"`
	Round     *int               `json:"round"`
}

// Gin is a player's seat at a game of gin rummy.
type Gin struct {
	*Table[GinState]
}

func NewGin(conn Conn, userID uint64, users UserResolver) *Gin {
	g := &Gin{
		Table: newTable(models.GameModeGin, conn, userID, users, GinState{
			Hand:    cards.NewHand(),
			Discard: cards.NewHand(),
		}),
	}
	g.handle(g.handleState, session.MessageState)
	g.handle(g.handleSynopsis, session.MessageSynopsis)
	return g
}

func (g *Gin) handleState(env session.Envelope) error {
	var msg ginStateMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}

	var laidDownUser *models.User
	if msg.LaidDown {
		laidDownUser = g.user(msg.LaidDownID)
	}

	g.apply(func(s *GinState) {
		s.Started = msg.Started
		s.Dealt = msg.Dealt
		s.LaidDown = msg.LaidDown
		s.LaidDownID = msg.LaidDownID
		s.Finished = msg.Finished
		if msg.LaidDown {
			s.LaidDownUser = laidDownUser
		}

		s.Hand.SetCardsTo(msg.Hand)
		s.Drawn = msg.Drawn
		s.PickedUpDiscard = msg.PickedUpDiscard
		s.RoundScore = msg.RoundScore
		s.Score = msg.Score
		s.Turn = msg.Turn
		s.Dealer = msg.Dealer
		s.Discard.SetCardsTo(msg.Discard)
		s.Config = msg.Config
	})
	return nil
}

func (g *Gin) handleSynopsis(env session.Envelope) error {
	var msg ginSynopsisMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}

	var laidDownID uint64
	g.View(func(s *GinState) { laidDownID = s.LaidDownID })

	var players []GinPlayer
	if msg.Players != nil {
		players = make([]GinPlayer, len(msg.Players))
		for i, p := range msg.Players {
			if p.Hand != nil {
				p.Hand.Sort(false, false)
			}
			players[i] = GinPlayer{
				User:        g.user(p.UID),
				Playing:     p.Playing,
				PlayerIndex: p.PlayerIndex,
				IsTurn:      p.IsTurn,
				IsDealer:    p.IsDealer,
				Hand:        p.Hand,
				RoundScore:  p.RoundScore,
				Score:       p.Score,
				HasLaidDown: laidDownID != 0 && p.UID == laidDownID,
			}
		}
	}

	g.apply(func(s *GinState) {
		if players != nil {
			s.Synopsis.Players = players
		}
		mergeInt(&s.Synopsis.Remaining, msg.Remaining)
		mergeInt(&s.Synopsis.Discarded, msg.Discarded)
		mergeInt(&s.Synopsis.Round, msg.Round)
	})
	return nil
}

func (g *Gin) MyTurn() bool {
	var turn uint64
	g.View(func(s *GinState) { turn = s.Turn })
	return g.isMe(turn)
}

func (g *Gin) Deal(ctx context.Context) (*session.Reply, error) {
	return g.conn.SendAndWait(ctx, DealRequest{})
}

func (g *Gin) TakeDiscard(ctx context.Context) (*session.Reply, error) {
	return g.conn.SendAndWait(ctx, TakeRequest{FromDiscard: true})
}

func (g *Gin) TakeTop(ctx context.Context) (*session.Reply, error) {
	return g.conn.SendAndWait(ctx, TakeRequest{FromDiscard: false})
}

// Discard discards cardID. With layingDown the player also goes out; a
// cardID of 0 goes out without discarding.
func (g *Gin) Discard(ctx context.Context, cardID int, layingDown bool) (*session.Reply, error) {
	if cardID == 0 {
		cardID = -1
	}
	return g.conn.SendAndWait(ctx, LayDownDiscardRequest{CardID: cardID, LayingDown: layingDown})
}

// Sort moves order to the front of the hand and tells the server the
// resulting order.
func (g *Gin) Sort(ctx context.Context, order ...int) (*session.Reply, error) {
	return sortHand(ctx, g.Table, func(s *GinState) *cards.Hand { return s.Hand }, order)
}

func (g *Gin) Score(ctx context.Context, score int) (*session.Reply, error) {
	return g.conn.SendAndWait(ctx, ScoreRequest{Score: score})
}

func (g *Gin) ScoreByGroups(ctx context.Context, groups [][]int, leftover []int) (*session.Reply, error) {
	return g.conn.SendAndWait(ctx, ScoreByGroupsRequest{Groups: groups, Leftover: leftover})
}

// Cards returns the hand's cards in order. The *Card values are the live
// ones held by the hand.
func (g *Gin) Cards() []*cards.Card {
	var out []*cards.Card
	g.View(func(s *GinState) { out = append(out, s.Hand.Cards...) })
	return out
}

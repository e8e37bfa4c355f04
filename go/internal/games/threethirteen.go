package games

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

type ThreeThirteenState struct {
	Started  bool
	Dealt    bool
	LaidDown bool
	Finished bool

	LaidDownID   uint64
	LaidDownUser *models.User

	// Hand and Discard keep their identity for the life of the game.
	Hand            *cards.Hand
	Groups          [][]int
	Leftover        []int
	Drawn           *cards.Card
	PickedUpDiscard bool
	RoundScore      int
	Score           int
	Turn            uint64
	Dealer          uint64
	Discard         *cards.Hand
	Round           int
	Config          json.RawMessage

	Synopsis ThreeThirteenSynopsis
}

type ThreeThirteenSynopsis struct {
	Players   []ThreeThirteenPlayer
	Remaining int
	Discarded int
	Round     int
}

type ThreeThirteenPlayer struct {
	User        *models.User
	Playing     bool
	PlayerIndex int
	IsTurn      bool
	IsDealer    bool
	Hand        *cards.Hand
	Groups      [][]int
	Leftover    []int
	RoundScore  int
	Score       int
	HasLaidDown bool
}

type threeThirteenStateMessage struct {
	Started         bool            `json:"started"`
	Dealt           bool            `json:"dealt"`
	LaidDown        bool            `json:"laid_down"`
	LaidDownID      uint64          `json:"laid_down_id"`
	Finished        bool            `json:"finished"`
	Hand            *cards.Hand     `json:"hand"`
	Groups          [][]int         `json:"groups"`
	Leftover        []int           `json:"leftover"`
	Drawn           *cards.Card     `json:"drawn"`
	PickedUpDiscard bool            `json:"picked_up_discard"`
	RoundScore      int             `json:"round_score"`
	Score           int             `json:"score"`
	Turn            uint64          `json:"turn"`
	Dealer          uint64          `json:"dealer"`
	Discard         *cards.Hand     `json:"discard"`
	Round           int             `json:"round"`
	Config          json.RawMessage `json:"config"`
}

type threeThirteenPlayerMessage struct {
	UID         uint64      `json:"user"`
	Playing     bool        `json:"playing"`
	PlayerIndex int         `json:"player_index"`
	IsTurn      bool        `json:"is_turn"`
	IsDealer    bool        `json:"is_dealer"`
	Hand        *cards.Hand `json:"hand"`
	Groups      [][]int     `json:"groups"`
	Leftover    []int       `json:"leftover"`
	RoundScore  int         `json:"round_score"`
	Score       int         `json:"score"`
}

type threeThirteenSynopsisMessage struct {
	Players   []threeThirteenPlayerMessage `json:"players"`
	Remaining *int                         `json:"remaining"`
	Discarded *int                         `json:"discarded"`
	Round     *int                         `json:"round"`
}

type ThreeThirteen struct {
	*Table[ThreeThirteenState]
}

func NewThreeThirteen(conn Conn, userID uint64, users UserResolver) *ThreeThirteen {
	tt := &ThreeThirteen{
		Table: newTable(models.GameModeThreeThirteen, conn, userID, users, ThreeThirteenState{
			Hand:    cards.NewHand(),
			Discard: cards.NewHand(),
		}),
	}
	tt.handle(tt.handleState, session.MessageState)
	tt.handle(tt.handleSynopsis, session.MessageSynopsis)
	return tt
}

func (tt *ThreeThirteen) handleState(env session.Envelope) error {
	var msg threeThirteenStateMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}

	var laidDownUser *models.User
	if msg.LaidDown {
		laidDownUser = tt.user(msg.LaidDownID)
	}

	tt.apply(func(s *ThreeThirteenState) {
		s.Started = msg.Started
		s.Dealt = msg.Dealt
		s.LaidDown = msg.LaidDown
		s.LaidDownID = msg.LaidDownID
		s.Finished = msg.Finished
		if msg.LaidDown {
			s.LaidDownUser = laidDownUser
		}

		s.Hand.SetCardsTo(msg.Hand)
		s.Hand.Sort(false, false)
		s.Groups = msg.Groups
		s.Leftover = msg.Leftover
		s.Drawn = msg.Drawn
		s.PickedUpDiscard = msg.PickedUpDiscard
		s.RoundScore = msg.RoundScore
		s.Score = msg.Score
		s.Turn = msg.Turn
		s.Dealer = msg.Dealer
		s.Discard.SetCardsTo(msg.Discard)
		s.Round = msg.Round
		s.Config = msg.Config
	})
	return nil
}

func (tt *ThreeThirteen) handleSynopsis(env session.Envelope) error {
	var msg threeThirteenSynopsisMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}

	var laidDownID uint64
	tt.View(func(s *ThreeThirteenState) { laidDownID = s.LaidDownID })

	var players []ThreeThirteenPlayer
	if msg.Players != nil {
		players = make([]ThreeThirteenPlayer, len(msg.Players))
		for i, p := range msg.Players {
			players[i] = ThreeThirteenPlayer{
				User:        tt.user(p.UID),
				Playing:     p.Playing,
				PlayerIndex: p.PlayerIndex,
				IsTurn:      p.IsTurn,
				IsDealer:    p.IsDealer,
				Hand:        p.Hand,
				Groups:      p.Groups,
				Leftover:    p.Leftover,
				RoundScore:  p.RoundScore,
				Score:       p.Score,
				HasLaidDown: laidDownID != 0 && p.UID == laidDownID,
			}
		}
	}

	tt.apply(func(s *ThreeThirteenState) {
		if players != nil {
			s.Synopsis.Players = players
		}
		mergeInt(&s.Synopsis.Remaining, msg.Remaining)
		mergeInt(&s.Synopsis.Discarded, msg.Discarded)
		mergeInt(&s.Synopsis.Round, msg.Round)
	})
	return nil
}

func (tt *ThreeThirteen) MyTurn() bool {
	var turn uint64
	tt.View(func(s *ThreeThirteenState) { turn = s.Turn })
	return tt.isMe(turn)
}

func (tt *ThreeThirteen) Deal(ctx context.Context) (*session.Reply, error) {
	return tt.conn.SendAndWait(ctx, DealRequest{})
}

func (tt *ThreeThirteen) TakeDiscard(ctx context.Context) (*session.Reply, error) {
	return tt.conn.SendAndWait(ctx, TakeRequest{FromDiscard: true})
}

func (tt *ThreeThirteen) TakeTop(ctx context.Context) (*session.Reply, error) {
	return tt.conn.SendAndWait(ctx, TakeRequest{FromDiscard: false})
}

func (tt *ThreeThirteen) Discard(ctx context.Context, cardID int, layingDown bool) (*session.Reply, error) {
	return tt.conn.SendAndWait(ctx, LayDownDiscardRequest{CardID: cardID, LayingDown: layingDown})
}

func (tt *ThreeThirteen) Score(ctx context.Context, score int) error {
	return tt.conn.Send(ctx, ScoreRequest{Score: score})
}

func (tt *ThreeThirteen) Cards() []*cards.Card {
	var out []*cards.Card
	tt.View(func(s *ThreeThirteenState) { out = append(out, s.Hand.Cards...) })
	return out
}

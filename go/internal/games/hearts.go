package games

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

type PassDirection int

const (
	PassLeft PassDirection = iota
	PassRight
	PassAcross
	PassHold
)

func (d PassDirection) String() string {
	switch d {
	case PassLeft:
		return "left"
	case PassRight:
		return "right"
	case PassAcross:
		return "across"
	case PassHold:
		return "hold"
	}
	return "unknown"
}

type HeartsState struct {
	Started  bool
	Dealt    bool
	Passed   bool
	Finished bool

	// Hand, Incoming, Played and Crib keep their identity for the life of
	// the game.
	Hand          *cards.Hand
	HavePassed    bool
	Incoming      *cards.Hand
	Tricks        int
	RoundScore    int
	Score         int
	Turn          uint64
	Leader        uint64
	Dealer        uint64
	PassDirection PassDirection
	Played        *cards.Hand
	WhoPlayed     []*models.User
	HeartsBroken  bool
	History       []*cards.Hand
	Crib          *cards.Hand
	Config        json.RawMessage

	Synopsis HeartsSynopsis
}

type HeartsSynopsis struct {
	Players       []HeartsPlayer
	PassDirection PassDirection
	Suit          string
}

type HeartsPlayer struct {
	User        *models.User
	Playing     bool
	PlayerIndex int
	IsTurn      bool
	IsLeader    bool
	IsDealer    bool
	Tricks      int
	RoundScore  int
	Score       int
}

type heartsStateMessage struct {
	Started       bool            `json:"started"`
	Dealt         bool            `json:"dealt"`
	Passed        bool            `json:"passed"`
	Finished      bool            `json:"finished"`
	Hand          *cards.Hand     `json:"hand"`
	HavePassed    bool            `json:"have_passed"`
	Incoming      *cards.Hand     `json:"incoming"`
	Tricks        int             `json:"tricks"`
	RoundScore    int             `json:"round_score"`
	Score         int             `json:"score"`
	Turn          uint64          `json:"turn"`
	Leader        uint64          `json:"leader"`
	Dealer        uint64          `json:"dealer"`
	PassDirection PassDirection   `json:"pass_direction"`
	Played        *cards.Hand     `json:"played"`
	WhoPlayed     []uint64        `json:"who_played"`
	HeartsBroken  bool            `json:"hearts_broken"`
	History       [][]*cards.Card `json:"history"`
	Crib          *cards.Hand     `json:"crib"`
	Config        json.RawMessage `json:"config"`
}

type heartsPlayerMessage struct {
	UID         uint64 `json:"user"`
	Playing     bool   `json:"playing"`
	PlayerIndex int    `json:"player_index"`
	IsTurn      bool   `json:"is_turn"`
	IsLeader    bool   `json:"is_leader"`
	IsDealer    bool   `json:"is_dealer"`
	Tricks      int    `json:"tricks"`
	RoundScore  int    `json:"round_score"`
	Score       int    `json:"score"`
}

type heartsSynopsisMessage struct {
	Players       []heartsPlayerMessage `json:"players"`
	PassDirection *PassDirection        `json:"pass_direction"`
	Suit          *string               `json:"suit"`
}

type Hearts struct {
	*Table[HeartsState]
}

func NewHearts(conn Conn, userID uint64, users UserResolver) *Hearts {
	h := &Hearts{
		Table: newTable(models.GameModeHearts, conn, userID, users, HeartsState{
			Hand:     cards.NewHand(),
			Incoming: cards.NewHand(),
			Played:   cards.NewHand(),
			Crib:     cards.NewHand(),
		}),
	}
	h.handle(h.handleState, session.MessageState)
	h.handle(h.handleSynopsis, session.MessageSynopsis)
	return h
}

func (h *Hearts) handleState(env session.Envelope) error {
	var msg heartsStateMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	whoPlayed := h.usersOf(msg.WhoPlayed)

	h.apply(func(s *HeartsState) {
		s.Started = msg.Started
		s.Dealt = msg.Dealt
		s.Passed = msg.Passed
		s.Finished = msg.Finished

		s.Hand.SetCardsTo(msg.Hand)
		s.Hand.Sort(true, true)
		s.HavePassed = msg.HavePassed
		s.Incoming.SetCardsTo(msg.Incoming)
		s.Incoming.Sort(true, true)
		s.Tricks = msg.Tricks
		s.RoundScore = msg.RoundScore
		s.Score = msg.Score
		s.Turn = msg.Turn
		s.Leader = msg.Leader
		s.Dealer = msg.Dealer
		s.PassDirection = msg.PassDirection
		s.Played.SetCardsTo(msg.Played)
		s.WhoPlayed = whoPlayed
		s.HeartsBroken = msg.HeartsBroken
		s.History = decodeHistory(msg.History)
		s.Crib.SetCardsTo(msg.Crib)
		s.Crib.Sort(true, true)
		s.Config = msg.Config
	})
	return nil
}

func (h *Hearts) handleSynopsis(env session.Envelope) error {
	var msg heartsSynopsisMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}

	var players []HeartsPlayer
	if msg.Players != nil {
		players = make([]HeartsPlayer, len(msg.Players))
		for i, p := range msg.Players {
			players[i] = HeartsPlayer{
				User:        h.user(p.UID),
				Playing:     p.Playing,
				PlayerIndex: p.PlayerIndex,
				IsTurn:      p.IsTurn,
				IsLeader:    p.IsLeader,
				IsDealer:    p.IsDealer,
				Tricks:      p.Tricks,
				RoundScore:  p.RoundScore,
				Score:       p.Score,
			}
		}
	}

	h.apply(func(s *HeartsState) {
		if players != nil {
			s.Synopsis.Players = players
		}
		if msg.PassDirection != nil {
			s.Synopsis.PassDirection = *msg.PassDirection
		}
		if msg.Suit != nil {
			s.Synopsis.Suit = *msg.Suit
		}
	})
	return nil
}

func (h *Hearts) MyTurn() bool {
	var turn uint64
	h.View(func(s *HeartsState) { turn = s.Turn })
	return h.isMe(turn)
}

func (h *Hearts) Deal(ctx context.Context) (*session.Reply, error) {
	return h.conn.SendAndWait(ctx, DealRequest{})
}

// Pass hands the given cards to the neighbour chosen by the pass direction.
func (h *Hearts) Pass(ctx context.Context, cardIDs ...int) (*session.Reply, error) {
	return h.conn.SendAndWait(ctx, PassRequest{ToPass: cardIDs})
}

func (h *Hearts) Play(ctx context.Context, cardID int) error {
	return h.conn.Send(ctx, PlayRequest{CardID: cardID})
}

func (h *Hearts) Cards() []*cards.Card {
	var out []*cards.Card
	h.View(func(s *HeartsState) { out = append(out, s.Hand.Cards...) })
	return out
}

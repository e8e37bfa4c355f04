package games

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

type EightJacksState struct {
	Started  bool
	Dealt    bool
	Assigned bool
	Finished bool
	Winners  []uint64

	// Hand, History and Discards keep their identity for the life of the game.
	Hand          *cards.Hand
	History       *cards.Hand
	Discards      *cards.Hand
	GlobalHistory *cards.Hand
	Team          int
	Runs          [][]int
	Score         int
	Turn          uint64
	TurnUser      *models.User
	Dealer        uint64
	Board         json.RawMessage
	Players       json.RawMessage
	Config        json.RawMessage

	SelectedSquare    int
	SelectedSquareUID uint64
	SelectedSquareSID int

	Synopsis EightJacksSynopsis
}

type EightJacksSynopsis struct {
	Players []EightJacksPlayer
}

type EightJacksPlayer struct {
	User        *models.User
	Playing     bool
	PlayerIndex int
	IsTurn      bool
	IsDealer    bool
	Team        int
	Score       int
}

type eightJacksStateMessage struct {
	Started       bool            `json:"started"`
	Dealt         bool            `json:"dealt"`
	Assigned      bool            `json:"assigned"`
	Finished      bool            `json:"finished"`
	Winners       []uint64        `json:"winners"`
	Hand          *cards.Hand     `json:"hand"`
	History       *cards.Hand     `json:"history"`
	Discards      *cards.Hand     `json:"discards"`
	GlobalHistory *cards.Hand     `json:"global_history"`
	Team          int             `json:"team"`
	Runs          [][]int         `json:"runs"`
	Score         int             `json:"score"`
	Turn          uint64          `json:"turn"`
	Dealer        uint64          `json:"dealer"`
	Board         json.RawMessage `json:"board"`
	Players       json.RawMessage `json:"players"`
	Config        json.RawMessage `json:"config"`

	SelectedSquare    int    `json:"selected_square"`
	SelectedSquareUID uint64 `json:"selected_square_uid"`
	SelectedSquareSID int    `json:"selected_square_sid"`
}

type eightJacksPlayerMessage struct {
	UID         uint64 `json:"user"`
	Playing     bool   `json:"playing"`
	PlayerIndex int    `json:"player_index"`
	IsTurn      bool   `json:"is_turn"`
	IsDealer    bool   `json:"is_dealer"`
	Team        int    `json:"team"`
	Score       int    `json:"score"`
}

type eightJacksSynopsisMessage struct {
	Players []eightJacksPlayerMessage `json:"players"`
}

type EightJacks struct {
	*Table[EightJacksState]
}

func NewEightJacks(conn Conn, userID uint64, users UserResolver) *EightJacks {
	ej := &EightJacks{
		Table: newTable(models.GameModeEightJacks, conn, userID, users, EightJacksState{
			Hand:          cards.NewHand(),
			History:       cards.NewHand(),
			Discards:      cards.NewHand(),
			GlobalHistory: cards.NewHand(),
		}),
	}
	ej.handle(ej.handleState, session.MessageState, session.MessageGameState)
	ej.handle(ej.handleSynopsis, session.MessageSynopsis)
	return ej
}

func (ej *EightJacks) handleState(env session.Envelope) error {
	var msg eightJacksStateMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	turnUser := ej.user(msg.Turn)

	ej.apply(func(s *EightJacksState) {
		s.Started = msg.Started
		s.Dealt = msg.Dealt
		s.Assigned = msg.Assigned
		s.Finished = msg.Finished
		s.Winners = msg.Winners

		s.Hand.SetCardsTo(msg.Hand)
		s.History.SetCardsTo(msg.History)
		s.Discards.SetCardsTo(msg.Discards)
		s.GlobalHistory.SetCardsTo(msg.GlobalHistory)
		s.Team = msg.Team
		s.Runs = msg.Runs
		s.Score = msg.Score
		s.Turn = msg.Turn
		s.TurnUser = turnUser
		s.Dealer = msg.Dealer
		s.Board = msg.Board
		s.Players = msg.Players
		s.Config = msg.Config
		s.SelectedSquare = msg.SelectedSquare
		s.SelectedSquareUID = msg.SelectedSquareUID
		s.SelectedSquareSID = msg.SelectedSquareSID
	})
	return nil
}

func (ej *EightJacks) handleSynopsis(env session.Envelope) error {
	var msg eightJacksSynopsisMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	if msg.Players == nil {
		ej.apply(func(*EightJacksState) {})
		return nil
	}

	players := make([]EightJacksPlayer, len(msg.Players))
	for i, p := range msg.Players {
		players[i] = EightJacksPlayer{
			User:        ej.user(p.UID),
			Playing:     p.Playing,
			PlayerIndex: p.PlayerIndex,
			IsTurn:      p.IsTurn,
			IsDealer:    p.IsDealer,
			Team:        p.Team,
			Score:       p.Score,
		}
	}
	ej.apply(func(s *EightJacksState) { s.Synopsis.Players = players })
	return nil
}

func (ej *EightJacks) MyTurn() bool {
	var turn uint64
	ej.View(func(s *EightJacksState) { turn = s.Turn })
	return ej.isMe(turn)
}

func (ej *EightJacks) AssignTeams(ctx context.Context, teams AssignRequest) (*session.Reply, error) {
	return ej.conn.SendAndWait(ctx, teams)
}

// Discard throws away a dead card.
func (ej *EightJacks) Discard(ctx context.Context, cardID int) error {
	return ej.conn.Send(ctx, DiscardRequest{CardID: cardID})
}

func (ej *EightJacks) Play(ctx context.Context, cardID, squareID int) error {
	return ej.conn.Send(ctx, SquarePlayRequest{CardID: cardID, SquareID: squareID})
}

// Mark claims the squares of a completed run.
func (ej *EightJacks) Mark(ctx context.Context, squares ...int) error {
	return ej.conn.Send(ctx, MarkRequest{Squares: squares})
}

// Select highlights a square for teammates.
func (ej *EightJacks) Select(ctx context.Context, squareID int) error {
	return ej.conn.Send(ctx, SelectRequest{SquareID: squareID})
}

func (ej *EightJacks) Sort(ctx context.Context, order ...int) (*session.Reply, error) {
	return sortHand(ctx, ej.Table, func(s *EightJacksState) *cards.Hand { return s.Hand }, order)
}

func (ej *EightJacks) Cards() []*cards.Card {
	var out []*cards.Card
	ej.View(func(s *EightJacksState) { out = append(out, s.Hand.Cards...) })
	return out
}

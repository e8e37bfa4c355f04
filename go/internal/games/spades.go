package games

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/models"
	"github.com/mcdev12/cardtable/go/internal/session"
)

// SpadesBid is a bid value. 1 through 18 are trick counts; the nil variants
// use the values above them.
type SpadesBid int

const (
	BidNil       SpadesBid = 19
	BidBlindNil  SpadesBid = 20
	BidTripleNil SpadesBid = 21

	maxTrickBid = 18
)

var bidNames = []string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen",
}

func (b SpadesBid) String() string {
	switch {
	case b == BidNil:
		return "nil"
	case b == BidBlindNil:
		return "blind nil"
	case b == BidTripleNil:
		return "triple nil"
	case b >= 1 && b <= maxTrickBid:
		return bidNames[b]
	}
	return fmt.Sprintf("bid(%d)", int(b))
}

func (b SpadesBid) Valid() bool {
	return (b >= 1 && b <= maxTrickBid) || b == BidNil || b == BidBlindNil || b == BidTripleNil
}

// SpadesConfig holds the settings that change which bids are allowed.
type SpadesConfig struct {
	WithNil       bool `json:"with_nil"`
	WithTripleNil bool `json:"with_triple_nil"`
}

type SpadesState struct {
	Started  bool
	Dealt    bool
	Split    bool
	Bidded   bool
	Finished bool

	// Hand and Played keep their identity for the life of the game.
	Hand         *cards.Hand
	Drawn        *cards.Card
	Peeked       bool
	Bid          SpadesBid
	Tricks       int
	Score        int
	Overtakes    int
	Turn         uint64
	Leader       uint64
	Dealer       uint64
	Played       *cards.Hand
	WhoPlayed    []*models.User
	SpadesBroken bool
	History      []*cards.Hand
	Config       json.RawMessage

	Synopsis SpadesSynopsis
}

type SpadesSynopsis struct {
	Players []SpadesPlayer
}

type SpadesPlayer struct {
	User        *models.User
	Playing     bool
	PlayerIndex int
	IsTurn      bool
	IsLeader    bool
	IsDealer    bool
	Bid         SpadesBid
	Tricks      int
	Score       int
	Overtakes   int
}

type spadesStateMessage struct {
	Started      bool            `json:"started"`
	Dealt        bool            `json:"dealt"`
	Split        bool            `json:"split"`
	Bidded       bool            `json:"bidded"`
	Finished     bool            `json:"finished"`
	Hand         *cards.Hand     `json:"hand"`
	Drawn        *cards.Card     `json:"drawn"`
	Peeked       bool            `json:"peeked"`
	Bid          SpadesBid       `json:"bid"`
	Tricks       int             `json:"tricks"`
	Score        int             `json:"score"`
	Overtakes    int             `json:"overtakes"`
	Turn         uint64          `json:"turn"`
	Leader       uint64          `json:"leader"`
	Dealer       uint64          `json:"dealer"`
	Played       *cards.Hand     `json:"played"`
	WhoPlayed    []uint64        `json:"who_played"`
	SpadesBroken bool            `json:"spades_broken"`
	History      [][]*cards.Card `json:"history"`
	Config       json.RawMessage `json:"config"`
}

type spadesPlayerMessage struct {
	UID         uint64    `json:"user"`
	Playing     bool      `json:"playing"`
	PlayerIndex int       `json:"player_index"`
	IsTurn      bool      `json:"is_turn"`
	IsLeader    bool      `json:"is_leader"`
	IsDealer    bool      `json:"is_dealer"`
	Bid         SpadesBid `json:"bid"`
	Tricks      int       `json:"tricks"`
	Score       int       `json:"score"`
	Overtakes   int       `json:"overtakes"`
}

type spadesSynopsisMessage struct {
	Players []spadesPlayerMessage `json:"players"`
}

type Spades struct {
	*Table[SpadesState]
}

func NewSpades(conn Conn, userID uint64, users UserResolver) *Spades {
	sp := &Spades{
		Table: newTable(models.GameModeSpades, conn, userID, users, SpadesState{
			Hand:   cards.NewHand(),
			Played: cards.NewHand(),
		}),
	}
	// game-state is the reply to peek and carries the same shape.
	sp.handle(sp.handleState, session.MessageState, session.MessageGameState)
	sp.handle(sp.handleSynopsis, session.MessageSynopsis)
	return sp
}

func (sp *Spades) handleState(env session.Envelope) error {
	var msg spadesStateMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	whoPlayed := sp.usersOf(msg.WhoPlayed)

	sp.apply(func(s *SpadesState) {
		s.Started = msg.Started
		s.Dealt = msg.Dealt
		s.Split = msg.Split
		s.Bidded = msg.Bidded
		s.Finished = msg.Finished

		s.Hand.SetCardsTo(msg.Hand)
		s.Hand.Sort(true, true)
		s.Drawn = msg.Drawn
		s.Peeked = msg.Peeked
		s.Bid = msg.Bid
		s.Tricks = msg.Tricks
		s.Score = msg.Score
		s.Overtakes = msg.Overtakes
		s.Turn = msg.Turn
		s.Leader = msg.Leader
		s.Dealer = msg.Dealer
		s.Played.SetCardsTo(msg.Played)
		s.WhoPlayed = whoPlayed
		s.SpadesBroken = msg.SpadesBroken
		s.History = decodeHistory(msg.History)
		s.Config = msg.Config
	})
	return nil
}

func (sp *Spades) handleSynopsis(env session.Envelope) error {
	var msg spadesSynopsisMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	if msg.Players == nil {
		sp.apply(func(*SpadesState) {})
		return nil
	}

	players := make([]SpadesPlayer, len(msg.Players))
	for i, p := range msg.Players {
		players[i] = SpadesPlayer{
			User:        sp.user(p.UID),
			Playing:     p.Playing,
			PlayerIndex: p.PlayerIndex,
			IsTurn:      p.IsTurn,
			IsLeader:    p.IsLeader,
			IsDealer:    p.IsDealer,
			Bid:         p.Bid,
			Tricks:      p.Tricks,
			Score:       p.Score,
			Overtakes:   p.Overtakes,
		}
	}
	sp.apply(func(s *SpadesState) { s.Synopsis.Players = players })
	return nil
}

func (sp *Spades) MyTurn() bool {
	var turn uint64
	sp.View(func(s *SpadesState) { turn = s.Turn })
	return sp.isMe(turn)
}

func (sp *Spades) MyDeal() bool {
	var dealer uint64
	sp.View(func(s *SpadesState) { dealer = s.Dealer })
	return sp.isMe(dealer)
}

// ValidBids lists the bids the player may make now. Before looking at the
// hand only blind nil is possible; afterwards trick bids up to the hand
// size, plus nil and triple nil when the game allows them.
func (sp *Spades) ValidBids() []SpadesBid {
	var (
		handSize int
		peeked   bool
		config   SpadesConfig
	)
	sp.View(func(s *SpadesState) {
		handSize = s.Hand.Len()
		peeked = s.Peeked
		if len(s.Config) > 0 {
			_ = json.Unmarshal(s.Config, &config)
		}
	})

	if handSize == 0 && !peeked {
		return []SpadesBid{BidBlindNil}
	}

	n := min(handSize, maxTrickBid)
	bids := make([]SpadesBid, 0, n+2)
	for b := 1; b <= n; b++ {
		bids = append(bids, SpadesBid(b))
	}
	if config.WithNil {
		bids = append(bids, BidNil)
	}
	if config.WithTripleNil {
		bids = append(bids, BidTripleNil)
	}
	return bids
}

// AssignTeams sends team assignments before dealing.
func (sp *Spades) AssignTeams(ctx context.Context, teams AssignRequest) (*session.Reply, error) {
	return sp.conn.SendAndWait(ctx, teams)
}

func (sp *Spades) Deal(ctx context.Context) (*session.Reply, error) {
	return sp.conn.SendAndWait(ctx, DealRequest{})
}

// Decide keeps or passes on the drawn card while splitting the deck.
func (sp *Spades) Decide(ctx context.Context, keep bool) error {
	return sp.conn.Send(ctx, DecideRequest{Keep: keep})
}

// Look reveals the hand, giving up the chance to bid blind nil.
func (sp *Spades) Look(ctx context.Context) (*session.Reply, error) {
	return sp.conn.SendAndWait(ctx, LookRequest{})
}

func (sp *Spades) Bid(ctx context.Context, bid SpadesBid) error {
	if !bid.Valid() {
		return fmt.Errorf("invalid bid %d", int(bid))
	}
	return sp.conn.Send(ctx, BidRequest{Bid: bid})
}

func (sp *Spades) Play(ctx context.Context, cardID int) error {
	return sp.conn.Send(ctx, PlayRequest{CardID: cardID})
}

func (sp *Spades) Cards() []*cards.Card {
	var out []*cards.Card
	sp.View(func(s *SpadesState) { out = append(out, s.Hand.Cards...) })
	return out
}

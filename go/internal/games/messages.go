package games

import (
	"github.com/mcdev12/cardtable/go/internal/session"
)

// Shared requests.

type AdmitRequest struct {
	TargetID uint64 `json:"target_id"`
	Admit    bool   `json:"admit"`
	Playing  bool   `json:"playing"`
}

func (AdmitRequest) MessageType() session.MessageType { return session.MessageAdmit }

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

func (ReadyRequest) MessageType() session.MessageType { return session.MessageReady }

type BindRequest struct {
	TargetID uint64 `json:"target_id"`
}

func (BindRequest) MessageType() session.MessageType { return session.MessageBindRequest }

type BindAcceptRequest struct {
	InitiatorID uint64 `json:"initiator_id"`
}

func (BindAcceptRequest) MessageType() session.MessageType { return session.MessageBindAccept }

type UnbindRequest struct {
	PeerID uint64 `json:"peer_id"`
}

func (UnbindRequest) MessageType() session.MessageType { return session.MessageUnbindRequest }

type StartRequest struct{}

func (StartRequest) MessageType() session.MessageType { return session.MessageStart }

type CancelRequest struct{}

func (CancelRequest) MessageType() session.MessageType { return session.MessageCancel }

type PeekRequest struct{}

func (PeekRequest) MessageType() session.MessageType { return session.MessagePeek }

type CountbackRequest struct {
	Value int `json:"value"`
}

func (CountbackRequest) MessageType() session.MessageType { return session.MessageCountback }

// Game specific requests.

type DealRequest struct{}

func (DealRequest) MessageType() session.MessageType { return session.MessageDeal }

type TakeRequest struct {
	FromDiscard bool `json:"from_discard"`
}

func (TakeRequest) MessageType() session.MessageType { return session.MessageTake }

// LayDownDiscardRequest discards in the rummy games, optionally going out.
// CardID -1 goes out without discarding.
type LayDownDiscardRequest struct {
	CardID     int  `json:"card_id"`
	LayingDown bool `json:"laying_down"`
}

func (LayDownDiscardRequest) MessageType() session.MessageType { return session.MessageDiscard }

type DiscardRequest struct {
	CardID int `json:"card_id"`
}

func (DiscardRequest) MessageType() session.MessageType { return session.MessageDiscard }

type SortRequest struct {
	Order []int `json:"order"`
}

func (SortRequest) MessageType() session.MessageType { return session.MessageSort }

type ScoreRequest struct {
	Score int `json:"score"`
}

func (ScoreRequest) MessageType() session.MessageType { return session.MessageScore }

type ScoreByGroupsRequest struct {
	Groups   [][]int `json:"groups"`
	Leftover []int   `json:"leftover"`
}

func (ScoreByGroupsRequest) MessageType() session.MessageType { return session.MessageScoreByGroups }

type PassRequest struct {
	ToPass []int `json:"to_pass"`
}

func (PassRequest) MessageType() session.MessageType { return session.MessagePass }

type PlayRequest struct {
	CardID int `json:"card_id"`
}

func (PlayRequest) MessageType() session.MessageType { return session.MessagePlay }

type SquarePlayRequest struct {
	CardID   int `json:"card_id"`
	SquareID int `json:"square_id"`
}

func (SquarePlayRequest) MessageType() session.MessageType { return session.MessagePlay }

type DecideRequest struct {
	Keep bool `json:"keep"`
}

func (DecideRequest) MessageType() session.MessageType { return session.MessageDecide }

type LookRequest struct{}

func (LookRequest) MessageType() session.MessageType { return session.MessageLook }

type BidRequest struct {
	Bid SpadesBid `json:"bid"`
}

func (BidRequest) MessageType() session.MessageType { return session.MessageBid }

type MarkRequest struct {
	Squares []int `json:"squares"`
}

func (MarkRequest) MessageType() session.MessageType { return session.MessageMark }

type SelectRequest struct {
	SquareID int `json:"square_id"`
}

func (SelectRequest) MessageType() session.MessageType { return session.MessageSelect }

// AssignRequest carries team assignments. Its fields are spliced into the
// message as is.
type AssignRequest map[string]any

func (AssignRequest) MessageType() session.MessageType { return session.MessageAssign }

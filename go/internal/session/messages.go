package session

// MessageType is the message_type discriminator carried by every frame.
type MessageType string

// AnyMessage subscribes a handler to every inbound frame.
const AnyMessage MessageType = ""

// Messages shared by every game.
const (
	MessageJoin          MessageType = "join"
	MessageAdmit         MessageType = "admit"
	MessageReady         MessageType = "ready"
	MessageBindRequest   MessageType = "bind-request"
	MessageBindAccept    MessageType = "bind-accept"
	MessageUnbindRequest MessageType = "unbind-request"
	MessageStart         MessageType = "start"
	MessageCancel        MessageType = "cancel"
	MessagePeek          MessageType = "peek"
	MessageCountback     MessageType = "countback"
)

// Game specific requests.
const (
	MessageDeal          MessageType = "deal"
	MessageTake          MessageType = "take"
	MessageDiscard       MessageType = "discard"
	MessageSort          MessageType = "sort"
	MessageScore         MessageType = "score"
	MessageScoreByGroups MessageType = "score_by_groups"
	MessagePass          MessageType = "pass"
	MessagePlay          MessageType = "play"
	MessageDecide        MessageType = "decide"
	MessageLook          MessageType = "look"
	MessageBid           MessageType = "bid"
	MessageMark          MessageType = "mark"
	MessageSelect        MessageType = "select"
	MessageAssign        MessageType = "assign"
)

// Server pushes.
const (
	MessageState           MessageType = "state"
	MessageGameState       MessageType = "game-state"
	MessageSynopsis        MessageType = "synopsis"
	MessageStarted         MessageType = "started"
	MessageCountdown       MessageType = "countdown"
	MessageDraw            MessageType = "draw"
	MessageFinished        MessageType = "finished"
	MessageError           MessageType = "error"
	MessageNotifyJoin      MessageType = "notify-join"
	MessageNotifyUsers     MessageType = "notify-users"
	MessageNotifyBind      MessageType = "notify-bind"
	MessageNotifyCountback MessageType = "notify-countback"
	MessageAdmitted        MessageType = "admitted"
	MessageKeepAlive       MessageType = "keepalive"
	MessageChecked         MessageType = "checked"
)

// Direction says who may originate a message kind.
type Direction uint8

const (
	FromClient Direction = 1 << iota
	FromServer
)

// kinds is the closed set of message kinds this client understands.
// Adding a kind is a change to this table.
var kinds = map[MessageType]Direction{
	MessageJoin:          FromClient,
	MessageAdmit:         FromClient,
	MessageReady:         FromClient,
	MessageBindRequest:   FromClient,
	MessageBindAccept:    FromClient,
	MessageUnbindRequest: FromClient,
	MessageStart:         FromClient,
	MessageCancel:        FromClient,
	MessagePeek:          FromClient,
	MessageCountback:     FromClient,

	MessageDeal:          FromClient,
	MessageTake:          FromClient,
	MessageDiscard:       FromClient,
	MessageSort:          FromClient,
	MessageScore:         FromClient,
	MessageScoreByGroups: FromClient,
	MessagePass:          FromClient,
	MessagePlay:          FromClient,
	MessageDecide:        FromClient,
	MessageLook:          FromClient,
	MessageBid:           FromClient | FromServer,
	MessageMark:          FromClient,
	MessageSelect:        FromClient,
	MessageAssign:        FromClient,

	MessageState:           FromServer,
	MessageGameState:       FromServer,
	MessageSynopsis:        FromServer,
	MessageStarted:         FromServer,
	MessageCountdown:       FromServer,
	MessageDraw:            FromServer,
	MessageFinished:        FromServer,
	MessageError:           FromServer,
	MessageNotifyJoin:      FromServer,
	MessageNotifyUsers:     FromServer,
	MessageNotifyBind:      FromServer,
	MessageNotifyCountback: FromServer,
	MessageAdmitted:        FromServer,
	MessageKeepAlive:       FromServer,
	MessageChecked:         FromServer,
}

// Known reports whether t is part of the protocol vocabulary.
func (t MessageType) Known() bool {
	_, ok := kinds[t]
	return ok
}

func (t MessageType) Direction() Direction {
	return kinds[t]
}

// CanSend reports whether the client may originate t.
func (t MessageType) CanSend() bool {
	return kinds[t]&FromClient != 0
}

// CanReceive reports whether the server may push t.
func (t MessageType) CanReceive() bool {
	return kinds[t]&FromServer != 0
}

// Outbound is implemented by every request payload. The payload must marshal
// to a JSON object; the multiplexer adds the header fields.
type Outbound interface {
	MessageType() MessageType
}

type joinMessage struct{}

func (joinMessage) MessageType() MessageType { return MessageJoin }

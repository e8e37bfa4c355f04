package session

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Header is the set of routing fields shared by every frame in both directions.
type Header struct {
	Mode        string      `json:"game_mode,omitempty"`
	GameID      uint64      `json:"game_id,omitempty"`
	PlayerID    uint64      `json:"player_id,omitempty"`
	MessageType MessageType `json:"message_type"`
	MessageID   int         `json:"message_id,omitempty"`
	Timestamp   uint64      `json:"timestamp,omitempty"`
	ReplyTo     int         `json:"reply_to,omitempty"`
}

// Envelope is an inbound frame: the parsed header plus the raw JSON so each
// consumer can decode the payload shape it expects.
type Envelope struct {
	Header
	Raw json.RawMessage
}

// ParseEnvelope validates a frame and extracts its header without decoding
// the payload.
func ParseEnvelope(data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return Envelope{}, fmt.Errorf("invalid JSON frame")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Envelope{}, fmt.Errorf("frame is not a JSON object")
	}

	msgType := root.Get("message_type")
	if !msgType.Exists() || msgType.String() == "" {
		return Envelope{}, ErrMissingMessageType
	}

	env := Envelope{
		Header: Header{
			Mode:        root.Get("game_mode").String(),
			GameID:      root.Get("game_id").Uint(),
			PlayerID:    root.Get("player_id").Uint(),
			MessageType: MessageType(msgType.String()),
			MessageID:   int(root.Get("message_id").Int()),
			Timestamp:   root.Get("timestamp").Uint(),
			ReplyTo:     int(root.Get("reply_to").Int()),
		},
		Raw: json.RawMessage(data),
	}
	return env, nil
}

// Decode unmarshals the whole frame into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.MessageType, err)
	}
	return nil
}

// Get returns a single field of the frame by gjson path.
func (e Envelope) Get(path string) gjson.Result {
	return gjson.GetBytes(e.Raw, path)
}

// IsError reports whether the frame reports a server failure: an error
// message type, a REST style type of "error", or a non-empty error field.
func (e Envelope) IsError() bool {
	if e.MessageType == MessageError {
		return true
	}
	if e.Get("type").String() == "error" {
		return true
	}
	errField := e.Get("error")
	return errField.Exists() && errField.Type != gjson.Null && errField.String() != ""
}

// ErrorText returns the server supplied failure description, if any.
func (e Envelope) ErrorText() string {
	if msg := e.Get("error").String(); msg != "" {
		return msg
	}
	return e.Get("message").String()
}

// Reply is the correlated answer to SendAndWait. A reply may itself report an
// application error; check IsError or Err before treating it as success.
type Reply struct {
	Envelope
}

// Err returns an *ErrorResponse when the reply reports a server failure.
func (r *Reply) Err() error {
	if r == nil || !r.IsError() {
		return nil
	}
	return &ErrorResponse{
		MessageType: r.MessageType,
		Message:     r.ErrorText(),
		ReplyTo:     r.ReplyTo,
	}
}

// mergeObjects splices the members of payload into header. Both must be
// JSON objects.
func mergeObjects(header, payload []byte) ([]byte, error) {
	if len(header) < 2 || header[0] != '{' || header[len(header)-1] != '}' {
		return nil, fmt.Errorf("header is not a JSON object")
	}
	p := gjson.ParseBytes(payload)
	if !p.IsObject() {
		return nil, fmt.Errorf("payload must marshal to a JSON object, got %s", p.Type)
	}
	inner := trimObject(payload)
	if len(inner) == 0 {
		return header, nil
	}
	out := make([]byte, 0, len(header)+len(inner)+1)
	out = append(out, header[:len(header)-1]...)
	out = append(out, ',')
	out = append(out, inner...)
	out = append(out, '}')
	return out, nil
}

// trimObject returns the bytes between the outer braces, whitespace trimmed.
func trimObject(obj []byte) []byte {
	start, end := 0, len(obj)
	for start < end && obj[start] != '{' {
		start++
	}
	for end > start && obj[end-1] != '}' {
		end--
	}
	inner := obj[start+1 : end-1]
	for len(inner) > 0 && isSpace(inner[0]) {
		inner = inner[1:]
	}
	for len(inner) > 0 && isSpace(inner[len(inner)-1]) {
		inner = inner[:len(inner)-1]
	}
	return inner
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned once the multiplexer has been closed.
	ErrClosed = errors.New("session closed")
	// ErrConnectionLost is wrapped by ConnectionError when the socket drops mid request.
	ErrConnectionLost = errors.New("connection lost")
	// ErrUnknownMessageType is returned for message kinds outside the protocol table.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrMissingMessageType is returned for frames without a message_type.
	ErrMissingMessageType = errors.New("frame has no message_type")
)

// ConnectionError is a transport failure: dialing, reading or writing the socket.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrorResponse is an application level failure reported by the server as
// an ordinary message.
type ErrorResponse struct {
	MessageType MessageType
	Message     string
	ReplyTo     int
}

func (e *ErrorResponse) Error() string {
	if e.Message == "" {
		return "server returned an error"
	}
	return "server error: " + e.Message
}

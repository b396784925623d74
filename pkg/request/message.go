package request

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ErrInternalServer is the message returned to clients when a handler fails unexpectedly.
var ErrInternalServer = errors.New("internal server error")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message represents a message response.
type Message struct {
	Message string `json:"Message" xml:"Message"`
}

// NewMessage creates a new Message.
func NewMessage(message string, args ...any) *Message {
	msg := message
	if len(args) > 0 {
		msg = fmt.Sprintf(message, args...)
	}
	return &Message{
		Message: msg,
	}
}

// MessageError represents a message response with an error, for when the client needs both a description and the
// underlying cause.
type MessageError struct {
	Message string `json:"Message" xml:"Message"`
	Error   string `json:"Error" xml:"Error"`
}

func NewMessageError(message string, err error) *MessageError {
	return &MessageError{
		Message: message,
		Error:   err.Error(),
	}
}

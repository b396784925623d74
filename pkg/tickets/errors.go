package tickets

import (
	"errors"
	"fmt"
)

// ErrPlatformForbidden is wrapped by Platform implementations when the platform refuses an action for lack of permissions.
var ErrPlatformForbidden = errors.New("platform forbidden")

// ErrPlatformNotFound is wrapped by Platform implementations when the target of an action no longer exists.
var ErrPlatformNotFound = errors.New("platform not found")

// ErrUnknownComponent is returned when a component ID does not belong to the ticket system.
var ErrUnknownComponent = errors.New("unknown component")

// ErrorKind classifies why a ticket operation did not succeed.
type ErrorKind int

const (
	// KindNotConfigured is a guild without the configuration the operation needs.
	KindNotConfigured ErrorKind = iota + 1

	// KindPermission is a caller without the rights for the operation.
	KindPermission

	// KindRateLimited is a caller that created a ticket too recently.
	KindRateLimited

	// KindAlreadyOpen is a caller that already has an open ticket of the type.
	KindAlreadyOpen

	// KindStale is a component that no longer matches the guild's configuration.
	KindStale

	// KindNotATicket is a close request outside a ticket channel.
	KindNotATicket

	// KindPlatform is a failed platform call.
	KindPlatform

	// KindDeleteFailed is a ticket channel that could not be deleted on close.
	KindDeleteFailed

	// KindAlreadyClosed is a close request for a ticket that another close has finished.
	KindAlreadyClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindPermission:
		return "permission"
	case KindRateLimited:
		return "rate_limited"
	case KindAlreadyOpen:
		return "already_open"
	case KindStale:
		return "stale"
	case KindNotATicket:
		return "not_a_ticket"
	case KindPlatform:
		return "platform"
	case KindDeleteFailed:
		return "delete_failed"
	case KindAlreadyClosed:
		return "already_closed"
	default:
		return "unknown"
	}
}

// Error is the result of a ticket operation that did not succeed. UserMessage is safe to show to the caller.
type Error struct {
	Kind        ErrorKind
	UserMessage string
	Err         error
}

func newError(kind ErrorKind, userMessage string, err error) *Error {
	return &Error{
		Kind:        kind,
		UserMessage: userMessage,
		Err:         err,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.UserMessage, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a ticket error, or zero when err is not one.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// IsDenied reports whether err is an expected refusal rather than a failure.
func IsDenied(err error) bool {
	switch KindOf(err) {
	case KindNotConfigured, KindPermission, KindRateLimited, KindAlreadyOpen, KindStale, KindNotATicket, KindAlreadyClosed:
		return true
	default:
		return false
	}
}

// UserMessage returns the message to show for err, falling back to fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var te *Error
	if errors.As(err, &te) && te.UserMessage != "" {
		return te.UserMessage
	}
	return fallback
}

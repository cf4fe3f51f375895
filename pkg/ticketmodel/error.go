package ticketmodel

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("NotFound")
	ErrAuthFailed    = errors.New("AuthFail")
	ErrEmptyUpdate   = errors.New("EmptyUpdate")
	ErrInvalidTicket = errors.New("InvalidTicketID")
)

// Kind classifies an adapter failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindAuth
	KindNotFound
	KindRemote
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "notfound"
	case KindRemote:
		return "remote"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Continuable reports whether a run may go on with the next ticket after a
// failure of this kind. Rejected credentials fail every following call too.
func (k Kind) Continuable() bool {
	return k != KindAuth
}

// Error is returned by Client implementations.
type Error struct {
	Op       string
	TicketID TicketID
	Kind     Kind
	// Code is the error code reported by the remote service, if any.
	Code string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.TicketID != "" {
		msg += " " + string(e.TicketID)
	}
	msg += fmt.Sprintf(" (%s)", e.Kind)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrAuthFailed:
		return e.Kind == KindAuth
	}
	return false
}

// KindOf returns the Kind of err, KindUnknown for errors not produced by a
// Client and for nil.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsAuth(err error) bool { return errors.Is(err, ErrAuthFailed) }

// Continuable reports whether err leaves the client usable for further calls.
// Joined errors are not continuable if any of them is not.
func Continuable(err error) bool {
	return err == nil || !IsAuth(err)
}

package session

import "errors"

var (
	// ErrSessionClosed is returned when trying to use a closed session
	ErrSessionClosed = errors.New("session is closed")

	// ErrSendTimeout is returned when send operation times out
	ErrSendTimeout = errors.New("send operation timed out")

	// ErrTooManySessions is returned when the session limit is reached
	ErrTooManySessions = errors.New("too many sessions")

	// ErrNotBound is returned for scroll, resize or refresh before a bind
	ErrNotBound = errors.New("no list is bound")

	// ErrBadRequest wraps invalid request fields
	ErrBadRequest = errors.New("bad request")
)

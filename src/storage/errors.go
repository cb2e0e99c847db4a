package storage

import "errors"

var (
	// ErrNotFound is returned when an operation references a session
	// that does not exist in the registry.
	ErrNotFound = errors.New("session not found")

	// ErrTurnOutOfOrder is returned when an appended turn's number is
	// not exactly one past the current maximum for its session, or when
	// a concurrent writer got there first.
	ErrTurnOutOfOrder = errors.New("turn number out of order")

	// ErrIDCollision is returned when session id generation exhausted
	// its retry budget without finding a free id.
	ErrIDCollision = errors.New("session id generation exhausted retries")
)

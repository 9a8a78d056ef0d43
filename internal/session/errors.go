package session

import "errors"

var (
	// ErrAuthentication means the integrity check failed while opening a
	// session: wrong passphrase or corrupted key material.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound means no session directory exists for the requested id.
	ErrNotFound = errors.New("session not found")

	// ErrCollision means id generation exhausted its attempts, or an import
	// targeted an id that already exists without requesting overwrite.
	ErrCollision = errors.New("session id collision")

	// ErrInvalidTransition means a status change out of a terminal state,
	// or into a state the machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

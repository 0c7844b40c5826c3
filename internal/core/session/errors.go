package session

import "errors"

var (
	// ErrEngineClosed is returned when mounting on a closed session
	ErrEngineClosed = errors.New("session is closed")

	// ErrInvalidCard is returned when a card is mounted without a post id
	ErrInvalidCard = errors.New("card requires a post id")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

package models

import "errors"

var (
	ErrInvalidJSON       = errors.New("invalid json")
	ErrDeckOrKeyRequired = errors.New("deck, key id, or pad required")
	ErrTextTooLong       = errors.New("text too long")
	ErrSessionConflict   = errors.New("session state conflict")
	ErrInvalidDrawCount  = errors.New("invalid draw count")
)

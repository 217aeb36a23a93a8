package domain

import "errors"

// common domain errors that cross entity boundaries.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidInput = errors.New("invalid input")
)

// feed engine errors surfaced to callers.
var (
	// ErrUnknownStrategy is returned when a caller asks for a strategy name
	// that is not registered. it is a programming error, never retried.
	ErrUnknownStrategy = errors.New("unknown feed strategy")

	// ErrInvalidCursor is returned by DecodeCursor for anything it did not produce.
	// callers treat it as "start from the beginning".
	ErrInvalidCursor = errors.New("invalid cursor")
)

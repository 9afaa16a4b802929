package course

import "errors"

var (
	// ErrNotActive is returned when a dose is marked or progress is queried
	// before the user has started a day. Surfaced as guidance, never fatal.
	ErrNotActive = errors.New("course not active")

	// ErrInvalidCount is returned for a malformed manual count (negative or
	// not a number). Surfaced as a usage hint.
	ErrInvalidCount = errors.New("invalid dose count")
)

package domain

import "errors"

var (
	// ErrNameNotFound is returned when a name record is not found
	ErrNameNotFound = errors.New("name not found")

	// ErrDuplicateName is returned when a write collides with the unique
	// constraint on the display-name column. Callers recover by re-reading
	// the surviving row; this is an expected outcome of two racing writers,
	// not a failure.
	ErrDuplicateName = errors.New("name already exists under another token")

	// ErrListingNotFound is returned when no listing matches an order hash
	ErrListingNotFound = errors.New("listing not found")

	// ErrStreamTerminated is returned when the stream client exhausts its
	// reconnect attempts
	ErrStreamTerminated = errors.New("stream reconnect attempts exhausted")
)

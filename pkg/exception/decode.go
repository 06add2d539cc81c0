package exception

import "errors"

// Decode errors
var (
	// ErrMissingField is returned when a wire message has fewer than six fields.
	ErrMissingField = errors.New("decode: missing field")

	// ErrMalformedField is returned when a field cannot be parsed into its type.
	ErrMalformedField = errors.New("decode: malformed field")
)

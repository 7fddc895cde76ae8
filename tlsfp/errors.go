package tlsfp

import "errors"

// Failure modes named in spec.md §4.2 "Failure modes".
var (
	ErrCryptoUnavailable = errors.New("tlsfp: secure randomness or required key-exchange primitive unavailable")
	ErrLengthOverflow    = errors.New("tlsfp: client hello exceeds maximum TLS record length")
	ErrInvalidSpec       = errors.New("tlsfp: spec references an unknown extension without a generic payload")
)

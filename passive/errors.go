// Package passive extracts fingerprints from raw captured packet bytes
// (spec.md §4.6 "Passive Fingerprint Extractor"). Every extractor treats
// its input as hostile: length fields are validated against the remaining
// buffer before use, and a short or corrupt packet yields Truncated or
// Malformed rather than a panic.
package passive

import "fmt"

// Truncated marks a packet that ran out of bytes before a length-prefixed
// field could be read in full.
type Truncated struct{ Where string }

func (e *Truncated) Error() string { return fmt.Sprintf("passive: truncated: %s", e.Where) }

// Malformed marks a packet whose structure violates its own declared
// lengths or invariants (e.g. IHL out of range).
type Malformed struct{ Reason string }

func (e *Malformed) Error() string { return fmt.Sprintf("passive: malformed: %s", e.Reason) }

// ResourceExhausted marks a packet or capture file that hit one of the
// package's safety-floor ceilings (MaxPacketBytes, MaxPacketsPerFile) —
// distinct from Malformed because the input may be perfectly well-formed,
// it is simply larger than this package is willing to process.
type ResourceExhausted struct{ Limit string }

func (e *ResourceExhausted) Error() string { return fmt.Sprintf("passive: resource exhausted: %s", e.Limit) }

// MaxPacketBytes caps per-packet processing (spec.md §4.6 safety floor).
const MaxPacketBytes = 65535

// MaxPacketsPerFile caps per-file packet count (spec.md §4.6 safety floor,
// configurable by callers iterating a capture file).
const MaxPacketsPerFile = 1_000_000

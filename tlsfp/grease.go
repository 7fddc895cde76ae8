package tlsfp

import (
	"crypto/rand"
	"fmt"
)

// greasePicker hands out GREASE values (RFC 8701) that are unique within a
// single ClientHello build, across cipher suites, groups, and extension
// types alike (spec.md §3 invariant, property P3).
type greasePicker struct {
	used map[uint16]bool
}

func newGreasePicker() *greasePicker {
	return &greasePicker{used: make(map[uint16]bool, 4)}
}

// next returns a freshly chosen GREASE value not yet used by this picker,
// or ErrCryptoUnavailable if the RNG failed or the 16 GREASE candidates
// are exhausted (spec.md §4.2 rule 2: "MUST fail rather than fall back to
// non-cryptographic randomness") — surfaced to the caller as a typed error
// rather than a panic, per spec.md §7's no-panic propagation policy.
func (g *greasePicker) next() (uint16, error) {
	for attempt := 0; attempt < 64; attempt++ {
		idx, err := randIndex(len(greaseValues))
		if err != nil {
			return 0, fmt.Errorf("tlsfp: %w: %v", ErrCryptoUnavailable, err)
		}
		v := greaseValues[idx]
		if !g.used[v] {
			g.used[v] = true
			return v, nil
		}
	}
	return 0, fmt.Errorf("tlsfp: %w: exhausted unique GREASE values", ErrCryptoUnavailable)
}

func randIndex(n int) (int, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int(b[0]) % n, nil
}

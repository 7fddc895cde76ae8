package tlsfp

// SessionIDPolicy controls session_id generation (spec.md §4.2 rule 3).
// Exact session-id handling varies across browser minor versions; ghostwire
// follows the policy recorded on the profile rather than guessing
// (spec.md §9 Open Questions).
type SessionIDPolicy int

const (
	// SessionIDEmpty sends a zero-length session_id.
	SessionIDEmpty SessionIDPolicy = iota
	// SessionIDTLS13Compat fills session_id with 32 random bytes, as
	// browsers do to stay compatible with middleboxes that expect TLS 1.2
	// session resumption shape even when negotiating TLS 1.3.
	SessionIDTLS13Compat
)

// CipherSuite is one entry of Spec.CipherSuites. A Value of 0 marks a
// GREASE slot resolved fresh on every build (spec.md §4.2 rule 4).
type CipherSuite uint16

const greaseCipherSentinel CipherSuite = 0

// Spec is the byte-exact ClientHello composition recipe (spec.md §3
// "ClientHelloSpec"). It is immutable once constructed; the composer never
// mutates a Spec, only the per-build BuildContext and EphemeralKeys.
type Spec struct {
	TLSVersionMin uint16
	TLSVersionMax uint16

	// CipherSuites is in the exact order to emit; entries equal to 0 mark
	// a GREASE slot.
	CipherSuites []CipherSuite

	CompressionMethods []byte

	// Extensions is in the exact wire order (spec.md §3 invariant: order
	// is part of the fingerprint's identity).
	Extensions []Extension

	SessionIDPolicy SessionIDPolicy

	// ALPN mirrors the ALPNExtension's protocol list for callers that need
	// it without walking Extensions (e.g. the orchestrator's protocol
	// selection).
	ALPN []string
}

// ExtensionTypeSequence returns the ordered extension type list. GREASE
// slots report the sentinel type 0 rather than a resolved value, since the
// concrete GREASE value is chosen fresh per build (property P2 compares
// this sequence, not individual GREASE values).
func (s *Spec) ExtensionTypeSequence() []uint16 {
	out := make([]uint16, len(s.Extensions))
	for i, e := range s.Extensions {
		out[i] = e.Type()
	}
	return out
}

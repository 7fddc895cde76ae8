package profile

// HTTP3 is the QUIC/HTTP3-layer fingerprint of a profile (spec.md §3
// "Http3Profile", §4.3.3 defaults).
type HTTP3 struct {
	InitialMaxData                uint64
	InitialMaxStreamDataBidiLocal  uint64
	InitialMaxStreamDataBidiRemote uint64
	InitialMaxStreamDataUni        uint64
	MaxConcurrentBidiStreams       uint64
	MaxConcurrentUniStreams        uint64
	MaxIdleTimeoutMillis           uint64
	MaxUDPPayloadSize              uint64
	ActiveConnectionIDLimit        uint64
	QPACKMaxTableCapacity          uint64
	QPACKBlockedStreams            uint64
	ALPN                           []string
}

// DefaultHTTP3 returns the common defaults spec.md §4.3.3 names when a
// profile doesn't override them.
func DefaultHTTP3() HTTP3 {
	return HTTP3{
		InitialMaxData:                 10 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 20,
		InitialMaxStreamDataBidiRemote: 1 << 20,
		InitialMaxStreamDataUni:        1 << 20,
		MaxConcurrentBidiStreams:       100,
		MaxConcurrentUniStreams:        100,
		MaxIdleTimeoutMillis:           30000,
		MaxUDPPayloadSize:              65527,
		ActiveConnectionIDLimit:        8,
		QPACKMaxTableCapacity:          16384,
		QPACKBlockedStreams:            100,
		ALPN:                           []string{"h3"},
	}
}

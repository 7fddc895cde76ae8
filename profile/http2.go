package profile

import "golang.org/x/net/http2"

// Setting is one (id, value) pair in transmission order (spec.md §3
// "Http2Profile"). It aliases golang.org/x/net/http2.Setting directly so
// the profile can be handed straight to an http2.Framer.WriteSettings call
// without an adapter layer (spec.md §4.3.2).
type Setting = http2.Setting

// PseudoHeader enumerates the ordered subset of HTTP/2 pseudo-headers a
// profile emits.
type PseudoHeader string

const (
	PseudoMethod    PseudoHeader = ":method"
	PseudoAuthority PseudoHeader = ":authority"
	PseudoScheme    PseudoHeader = ":scheme"
	PseudoPath      PseudoHeader = ":path"
)

// PriorityParam mirrors http2.PriorityParam for the profile's header
// priority and any standalone PRIORITY frames a browser sends up front
// (e.g. Firefox).
type PriorityParam = http2.PriorityParam

// PriorityFrame is a standalone PRIORITY frame sent before any request, as
// Firefox does for its first several stream IDs.
type PriorityFrame struct {
	StreamID uint32
	PriorityParam
}

// HTTP2 is the HTTP/2-layer fingerprint of a profile (spec.md §3
// "Http2Profile").
type HTTP2 struct {
	Settings          []Setting
	PseudoHeaderOrder []PseudoHeader
	PriorityFrames    []PriorityFrame
	HeaderPriority    *PriorityParam
	ConnectionFlow    uint32
}

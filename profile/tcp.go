package profile

// TCPOption is one TCP option kind as it appears in a SYN's options list,
// in wire order (spec.md §3 "TcpProfile").
type TCPOption int

const (
	TCPOptionMSS TCPOption = iota
	TCPOptionNOP
	TCPOptionWindowScale
	TCPOptionSACKPermitted
	TCPOptionTimestamps
)

// TCP is the TCP-layer fingerprint of a profile (spec.md §3 "TcpProfile").
// MSS and WindowScale are advisory: not every platform's socket API lets a
// client set them, so a best-effort emitter is acceptable (spec.md §9 Open
// Questions).
type TCP struct {
	TTL          uint8
	WindowSize   uint16
	MSS          *uint16
	WindowScale  *uint8
	OptionsOrder []TCPOption
}

// Clone returns a deep copy so SyncTCPFromUA and GenerateUnified can hand
// out a profile's TCP fingerprint without aliasing the catalogue's
// immutable entries.
func (t TCP) Clone() TCP {
	c := t
	if t.MSS != nil {
		mss := *t.MSS
		c.MSS = &mss
	}
	if t.WindowScale != nil {
		ws := *t.WindowScale
		c.WindowScale = &ws
	}
	c.OptionsOrder = append([]TCPOption(nil), t.OptionsOrder...)
	return c
}

func u16p(v uint16) *uint16 { return &v }
func u8p(v uint8) *uint8    { return &v }

var defaultOptionsOrder = []TCPOption{
	TCPOptionMSS, TCPOptionNOP, TCPOptionWindowScale,
	TCPOptionNOP, TCPOptionNOP, TCPOptionTimestamps,
	TCPOptionSACKPermitted,
}

// windowsTCP, macTCP and linuxTCP are the canonical per-OS TCP fingerprints
// used both by the catalogue and by sync_tcp_from_ua (spec.md §4.1,
// property P1: Windows UA => TTL 128, macOS/Linux UA => TTL 64).
func windowsTCP() TCP {
	return TCP{TTL: 128, WindowSize: 64240, MSS: u16p(1460), WindowScale: u8p(8), OptionsOrder: defaultOptionsOrder}
}

func macTCP() TCP {
	return TCP{TTL: 64, WindowSize: 65535, MSS: u16p(1460), WindowScale: u8p(6), OptionsOrder: defaultOptionsOrder}
}

func linuxTCP() TCP {
	return TCP{TTL: 64, WindowSize: 65535, MSS: u16p(1460), WindowScale: u8p(7), OptionsOrder: defaultOptionsOrder}
}

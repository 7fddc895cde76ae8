package passive

// TCPFingerprint is the passively-observed TCP-layer signature from a SYN
// or SYN-ACK (spec.md §4.6 "TCP extractor").
type TCPFingerprint struct {
	TTL         uint8
	Window      uint16
	MSS         uint16
	HasMSS      bool
	WindowScale uint8
	HasWScale   bool
	OptionOrder []int // TCP option kind bytes, in wire order
}

// TCP option kinds (RFC 9293 §3.1).
const (
	optKindEnd         = 0
	optKindNOP         = 1
	optKindMSS         = 2
	optKindWindowScale = 3
	optKindSACKPermit  = 4
	optKindTimestamp   = 8
)

// ExtractTCP parses a SYN or SYN-ACK's TCP header+options into a
// TCPFingerprint. It does not read any IP header: the TTL comes from ipTTL,
// since callers typically already parsed the IP header to locate the TCP
// segment.
func ExtractTCP(ipTTL uint8, tcpSegment []byte) (*TCPFingerprint, error) {
	if len(tcpSegment) > MaxPacketBytes {
		return nil, &ResourceExhausted{Limit: "packet exceeds MaxPacketBytes"}
	}
	if len(tcpSegment) < 20 {
		return nil, &Truncated{Where: "tcp fixed header"}
	}
	dataOffsetWords := int(tcpSegment[12] >> 4)
	if dataOffsetWords < 5 || dataOffsetWords > 15 {
		return nil, &Malformed{Reason: "tcp data offset out of range"}
	}
	headerLen := dataOffsetWords * 4
	if headerLen > len(tcpSegment) {
		return nil, &Truncated{Where: "tcp header (data offset exceeds buffer)"}
	}

	window := uint16(tcpSegment[14])<<8 | uint16(tcpSegment[15])
	fp := &TCPFingerprint{TTL: ipTTL, Window: window}

	opts := tcpSegment[20:headerLen]
	i := 0
	for i < len(opts) {
		kind := int(opts[i])
		fp.OptionOrder = append(fp.OptionOrder, kind)
		switch kind {
		case optKindEnd:
			i = len(opts)
		case optKindNOP:
			i++
		case optKindMSS:
			if i+4 > len(opts) {
				return nil, &Truncated{Where: "mss option"}
			}
			fp.MSS = uint16(opts[i+2])<<8 | uint16(opts[i+3])
			fp.HasMSS = true
			i += 4
		case optKindWindowScale:
			if i+3 > len(opts) {
				return nil, &Truncated{Where: "window scale option"}
			}
			fp.WindowScale = opts[i+2]
			fp.HasWScale = true
			i += 3
		default:
			if i+1 >= len(opts) {
				return nil, &Truncated{Where: "option length byte"}
			}
			optLen := int(opts[i+1])
			if optLen < 2 || i+optLen > len(opts) {
				return nil, &Malformed{Reason: "option length out of range"}
			}
			i += optLen
		}
	}
	return fp, nil
}

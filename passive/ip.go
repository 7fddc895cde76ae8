package passive

import "encoding/binary"

const (
	ipVersion4 = 4
	ipVersion6 = 6

	// ihlMin/ihlMax bound the IPv4 Internet Header Length field, in 32-bit
	// words (RFC 791 §3.1): 5 words (20 bytes, no options) through 15 words
	// (60 bytes, the field's 4-bit maximum) — spec.md §4.6 "packet parser
	// safety floor".
	ihlMin = 5
	ihlMax = 15

	ipProtoTCP = 6
)

// IPFingerprint is the passively-observed IP-layer signature (spec.md §4.6
// "packet parser safety floor"): just enough of the header to hand TTL and
// the TCP segment on to ExtractTCP, plus the fields worth fingerprinting in
// their own right.
type IPFingerprint struct {
	Version  int
	TTL      uint8
	Protocol uint8
}

// ParseIP validates an IPv4 or IPv6 header at the front of packet and
// returns its signature alongside the remaining payload (the transport
// segment). It enforces MaxPacketBytes before looking at a single header
// field: the safety floor applies to every packet, parseable or not.
func ParseIP(packet []byte) (*IPFingerprint, []byte, error) {
	if len(packet) > MaxPacketBytes {
		return nil, nil, &ResourceExhausted{Limit: "packet exceeds MaxPacketBytes"}
	}
	if len(packet) < 1 {
		return nil, nil, &Truncated{Where: "ip version nibble"}
	}

	switch packet[0] >> 4 {
	case ipVersion4:
		return parseIPv4(packet)
	case ipVersion6:
		return parseIPv6(packet)
	default:
		return nil, nil, &Malformed{Reason: "ip version is neither 4 nor 6"}
	}
}

func parseIPv4(packet []byte) (*IPFingerprint, []byte, error) {
	if len(packet) < 20 {
		return nil, nil, &Truncated{Where: "ipv4 fixed header"}
	}
	ihl := int(packet[0] & 0x0f)
	if ihl < ihlMin || ihl > ihlMax {
		return nil, nil, &Malformed{Reason: "ipv4 IHL out of range 5..15"}
	}
	headerLen := ihl * 4
	if headerLen > len(packet) {
		return nil, nil, &Truncated{Where: "ipv4 header (IHL exceeds buffer)"}
	}
	totalLen := int(binary.BigEndian.Uint16(packet[2:4]))
	if totalLen > len(packet) {
		return nil, nil, &Truncated{Where: "ipv4 total length exceeds buffer"}
	}

	fp := &IPFingerprint{
		Version:  ipVersion4,
		TTL:      packet[8],
		Protocol: packet[9],
	}
	return fp, packet[headerLen:totalLen], nil
}

func parseIPv6(packet []byte) (*IPFingerprint, []byte, error) {
	const fixedHeaderLen = 40
	if len(packet) < fixedHeaderLen {
		return nil, nil, &Truncated{Where: "ipv6 fixed header"}
	}
	payloadLen := int(binary.BigEndian.Uint16(packet[4:6]))
	if fixedHeaderLen+payloadLen > len(packet) {
		return nil, nil, &Truncated{Where: "ipv6 payload length exceeds buffer"}
	}

	fp := &IPFingerprint{
		Version:  ipVersion6,
		TTL:      packet[7], // hop limit, the IPv6 analogue of TTL
		Protocol: packet[6], // next header; extension headers are not walked
	}
	return fp, packet[fixedHeaderLen : fixedHeaderLen+payloadLen], nil
}

package passive

import (
	"encoding/binary"

	"github.com/duskmantle/ghostwire/fingerprint"
)

const (
	tlsContentTypeHandshake = 0x16
	tlsHandshakeClientHello = 0x01
)

// ExtractTLS scans payload for a TLS record carrying a ClientHello and
// parses it into a ClientHelloSignature (spec.md §4.6 "TLS extractor").
// Every length field is bounds-checked against the declared record and
// buffer length before use; an extension whose declared length exceeds the
// record bounds is rejected as Malformed rather than read out of bounds.
func ExtractTLS(payload []byte) (*fingerprint.ClientHelloSignature, error) {
	if len(payload) > MaxPacketBytes {
		return nil, &ResourceExhausted{Limit: "packet exceeds MaxPacketBytes"}
	}
	if len(payload) < 5 {
		return nil, &Truncated{Where: "tls record header"}
	}
	if payload[0] != tlsContentTypeHandshake {
		return nil, &Malformed{Reason: "not a handshake record"}
	}
	recordLen := int(binary.BigEndian.Uint16(payload[3:5]))
	if 5+recordLen > len(payload) {
		return nil, &Truncated{Where: "tls record body"}
	}
	body := payload[5 : 5+recordLen]

	if len(body) < 4 {
		return nil, &Truncated{Where: "handshake header"}
	}
	if body[0] != tlsHandshakeClientHello {
		return nil, &Malformed{Reason: "not a ClientHello"}
	}
	helloLen := int(body[1])<<16 | int(body[2])<<8 | int(body[3])
	if 4+helloLen > len(body) {
		return nil, &Truncated{Where: "client hello body"}
	}
	hello := body[4 : 4+helloLen]

	return parseClientHello(hello)
}

func parseClientHello(b []byte) (*fingerprint.ClientHelloSignature, error) {
	if len(b) < 2 {
		return nil, &Truncated{Where: "client hello version"}
	}
	sig := &fingerprint.ClientHelloSignature{
		Version: binary.BigEndian.Uint16(b[0:2]),
	}
	i := 2 + 32 // version + random
	if i > len(b) {
		return nil, &Truncated{Where: "client random"}
	}

	if i >= len(b) {
		return nil, &Truncated{Where: "session id length"}
	}
	sessIDLen := int(b[i])
	i++
	if i+sessIDLen > len(b) {
		return nil, &Truncated{Where: "session id"}
	}
	i += sessIDLen

	if i+2 > len(b) {
		return nil, &Truncated{Where: "cipher suites length"}
	}
	cipherLen := int(binary.BigEndian.Uint16(b[i : i+2]))
	i += 2
	if i+cipherLen > len(b) || cipherLen%2 != 0 {
		return nil, &Malformed{Reason: "cipher suites length"}
	}
	for off := 0; off < cipherLen; off += 2 {
		sig.Ciphers = append(sig.Ciphers, binary.BigEndian.Uint16(b[i+off:i+off+2]))
	}
	i += cipherLen

	if i >= len(b) {
		return nil, &Truncated{Where: "compression methods length"}
	}
	compLen := int(b[i])
	i++
	if i+compLen > len(b) {
		return nil, &Truncated{Where: "compression methods"}
	}
	i += compLen

	if i == len(b) {
		return sig, nil // no extensions block present
	}
	if i+2 > len(b) {
		return nil, &Truncated{Where: "extensions length"}
	}
	extTotalLen := int(binary.BigEndian.Uint16(b[i : i+2]))
	i += 2
	if i+extTotalLen > len(b) {
		return nil, &Malformed{Reason: "extensions length exceeds record"}
	}
	extEnd := i + extTotalLen

	for i < extEnd {
		if i+4 > extEnd {
			return nil, &Malformed{Reason: "truncated extension header"}
		}
		extType := binary.BigEndian.Uint16(b[i : i+2])
		extLen := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		i += 4
		if i+extLen > extEnd {
			return nil, &Malformed{Reason: "extension length exceeds record bounds"}
		}
		extBody := b[i : i+extLen]
		sig.Extensions = append(sig.Extensions, extType)

		switch extType {
		case 10: // supported_groups
			parseGroupList(extBody, sig)
		case 11: // ec_point_formats
			if len(extBody) >= 1 {
				n := int(extBody[0])
				if 1+n <= len(extBody) {
					sig.ECFormats = append(sig.ECFormats, extBody[1:1+n]...)
				}
			}
		case 0: // server_name
			sig.SNI = parseSNI(extBody)
		case 16: // application_layer_protocol_negotiation
			sig.ALPN = parseALPN(extBody)
		}
		i += extLen
	}
	return sig, nil
}

func parseGroupList(body []byte, sig *fingerprint.ClientHelloSignature) {
	if len(body) < 2 {
		return
	}
	n := int(binary.BigEndian.Uint16(body[0:2]))
	if 2+n > len(body) {
		n = len(body) - 2
	}
	list := body[2 : 2+n]
	for off := 0; off+2 <= len(list); off += 2 {
		sig.Curves = append(sig.Curves, binary.BigEndian.Uint16(list[off:off+2]))
	}
}

func parseSNI(body []byte) string {
	if len(body) < 5 {
		return ""
	}
	nameLen := int(binary.BigEndian.Uint16(body[3:5]))
	if 5+nameLen > len(body) {
		return ""
	}
	return string(body[5 : 5+nameLen])
}

func parseALPN(body []byte) []string {
	if len(body) < 2 {
		return nil
	}
	var out []string
	i := 2
	for i < len(body) {
		l := int(body[i])
		i++
		if i+l > len(body) {
			break
		}
		out = append(out, string(body[i:i+l]))
		i += l
	}
	return out
}

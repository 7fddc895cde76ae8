package tlsfp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// Hello is the result of BuildClientHello (spec.md §4.2 "build_client_hello").
type Hello struct {
	Record       []byte // full TLS record: 5-byte header + 4-byte handshake header + body
	ClientRandom [32]byte
	Keys         *EphemeralKeys
	SessionID    []byte
}

// BuildClientHello turns (spec, sni) into the bytes of a TLS record
// containing exactly one ClientHello handshake message (spec.md §4.2).
func BuildClientHello(spec *Spec, sni string) (*Hello, error) {
	clientRandom, err := newClientRandom()
	if err != nil {
		return nil, fmt.Errorf("tlsfp: %w: %v", ErrCryptoUnavailable, err)
	}

	sessionID, err := buildSessionID(spec.SessionIDPolicy)
	if err != nil {
		return nil, err
	}

	keys := newEphemeralKeys()
	grease := newGreasePicker()

	cipherBytes, err := resolveCipherSuites(spec.CipherSuites, grease)
	if err != nil {
		return nil, err
	}

	// Padding (spec.md §4.2 rule 5) must be computed against the full
	// ClientHello length so far, not just the extensions already emitted:
	// handshake header (4) + client_version (2) + random (32) + session_id
	// length-prefix+body + cipher_suites length-prefix+body + compression
	// methods length-prefix+body + the 2-byte extensions-length prefix.
	helloPrefixLen := 4 + 2 + 32 + 1 + len(sessionID) + 2 + len(cipherBytes) + 1 + len(spec.CompressionMethods) + 2

	extBytes, err := resolveExtensions(spec.Extensions, &BuildContext{
		SNI:         sni,
		Keys:        keys,
		Grease:      grease,
		helloPrefix: helloPrefixLen,
	})
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, 4+32+1+len(sessionID)+2+len(cipherBytes)+1+len(spec.CompressionMethods)+2+len(extBytes))
	clientVersion := spec.TLSVersionMax
	if clientVersion < VersionTLS12 {
		clientVersion = VersionTLS12
	}
	body = appendU16(body, clientVersion)
	body = append(body, clientRandom[:]...)
	body = append(body, byte(len(sessionID)))
	body = append(body, sessionID...)
	body = appendU16Prefixed(body, cipherBytes)
	body = append(body, byte(len(spec.CompressionMethods)))
	body = append(body, spec.CompressionMethods...)
	body = appendU16Prefixed(body, extBytes)

	if len(body) > maxRecordLength {
		return nil, fmt.Errorf("tlsfp: %w: client hello body is %d bytes", ErrLengthOverflow, len(body))
	}

	handshake := make([]byte, 0, 4+len(body))
	handshake = append(handshake, handshakeTypeClientHello)
	handshake = append(handshake, u24(len(body))...)
	handshake = append(handshake, body...)

	record := make([]byte, 5, 5+len(handshake))
	record[0] = recordTypeHandshake
	binary.BigEndian.PutUint16(record[1:3], recordVersionTLS10)
	binary.BigEndian.PutUint16(record[3:5], uint16(len(handshake)))
	record = append(record, handshake...)

	return &Hello{
		Record:       record,
		ClientRandom: clientRandom,
		Keys:         keys,
		SessionID:    sessionID,
	}, nil
}

func resolveCipherSuites(suites []CipherSuite, grease *greasePicker) ([]byte, error) {
	var out []byte
	for _, cs := range suites {
		if cs == greaseCipherSentinel {
			v, err := grease.next()
			if err != nil {
				return nil, err
			}
			out = appendU16(out, v)
			continue
		}
		out = appendU16(out, uint16(cs))
	}
	return out, nil
}

func resolveExtensions(exts []Extension, ctx *BuildContext) ([]byte, error) {
	var out []byte
	for _, e := range exts {
		if e.IsGREASEExt() {
			typ, err := ctx.Grease.next()
			if err != nil {
				return nil, err
			}
			out = appendU16(out, typ)
			out = appendU16(out, 0) // zero-length payload
			continue
		}
		if sni, ok := e.(SNIExtension); ok {
			if ctx.SNI == "" {
				continue // spec.md §4.2 rule 5: omit SNI entirely when empty
			}
			_ = sni
		}
		ctx.PartialLenSoFar = ctx.helloPrefix + len(out)
		payload, err := e.Payload(ctx)
		if err != nil {
			return nil, err
		}
		out = appendU16(out, e.Type())
		out = appendU16Prefixed(out, payload)
	}
	return out, nil
}

func newClientRandom() ([32]byte, error) {
	var r [32]byte
	binary.BigEndian.PutUint32(r[0:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(r[4:]); err != nil {
		return r, err
	}
	return r, nil
}

func buildSessionID(policy SessionIDPolicy) ([]byte, error) {
	switch policy {
	case SessionIDTLS13Compat:
		id := make([]byte, 32)
		if _, err := rand.Read(id); err != nil {
			return nil, fmt.Errorf("tlsfp: %w: %v", ErrCryptoUnavailable, err)
		}
		return id, nil
	default:
		return nil, nil
	}
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendU16Prefixed(b, body []byte) []byte {
	b = appendU16(b, uint16(len(body)))
	return append(b, body...)
}

func u24(n int) []byte {
	return []byte{byte(n >> 16), byte(n >> 8), byte(n)}
}

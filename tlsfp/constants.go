// Package tlsfp composes byte-exact TLS ClientHello records from a
// ClientHelloSpec (spec.md C2). It owns extension serialisation and GREASE
// resolution; the negotiated handshake past the ClientHello is delegated to
// a pluggable Engine (spec.md §1 non-goal: full post-ClientHello handshake).
package tlsfp

// Record and handshake framing (RFC 5246 §6.2.1, §7.4).
const (
	recordTypeHandshake  = 0x16
	recordVersionTLS10   = 0x0301
	handshakeTypeClientHello = 0x01
	maxRecordLength      = 1 << 14 // spec.md C2 LengthOverflow threshold
)

// TLS version codes (legacy 16-bit codes, RFC 8446 §4.2.1).
const (
	VersionSSL30 = 0x0300
	VersionTLS10 = 0x0301
	VersionTLS11 = 0x0302
	VersionTLS12 = 0x0303
	VersionTLS13 = 0x0304
)

// Extension type IDs (IANA TLS ExtensionType registry), named for the
// tagged Extension variant union in spec.md §3.
const (
	ExtServerName                     uint16 = 0
	ExtStatusRequest                  uint16 = 5
	ExtSupportedGroups                uint16 = 10
	ExtECPointFormats                 uint16 = 11
	ExtSignatureAlgorithms            uint16 = 13
	ExtALPN                           uint16 = 16
	ExtSignedCertificateTimestamp     uint16 = 18
	ExtPadding                        uint16 = 21
	ExtExtendedMasterSecret           uint16 = 23
	ExtCompressCertificate            uint16 = 27
	ExtRecordSizeLimit                uint16 = 28
	ExtSessionTicket                  uint16 = 35
	ExtApplicationSettings            uint16 = 17513
	ExtApplicationSettingsCompat      uint16 = 17613
	ExtPreSharedKey                   uint16 = 41
	ExtEarlyData                      uint16 = 42
	ExtSupportedVersions              uint16 = 43
	ExtCookie                         uint16 = 44
	ExtPSKKeyExchangeModes            uint16 = 45
	ExtKeyShare                       uint16 = 51
	ExtEncryptedClientHello           uint16 = 65037
	ExtRenegotiationInfo              uint16 = 65281
)

// GREASE placeholder values (RFC 8701). Any 16-bit value of this family may
// be used as a GREASE marker in a cipher suite, supported-group, or
// extension-type slot; real ones are chosen at serialisation time.
var greaseValues = [16]uint16{
	0x0a0a, 0x1a1a, 0x2a2a, 0x3a3a,
	0x4a4a, 0x5a5a, 0x6a6a, 0x7a7a,
	0x8a8a, 0x9a9a, 0xaaaa, 0xbaba,
	0xcaca, 0xdada, 0xeaea, 0xfafa,
}

// IsGREASE reports whether v follows the RFC 8701 GREASE pattern
// (v & 0x0f0f == 0x0a0a).
func IsGREASE(v uint16) bool {
	return v&0x0f0f == 0x0a0a
}

// Named group IDs (RFC 8446 §4.2.7, plus the hybrid PQ groups newer Chrome
// profiles advertise).
const (
	GroupX25519             uint16 = 0x001d
	GroupP256               uint16 = 0x0017
	GroupP384               uint16 = 0x0018
	GroupP521               uint16 = 0x0019
	GroupX25519Kyber768Draft uint16 = 0x6399
	GroupX25519MLKEM768     uint16 = 0x11ec
)

// Well-known TLS 1.3 + TLS 1.2 cipher suite IDs used across the profile
// catalogue (spec.md S1/S2 examples).
const (
	CipherAES128GCMSHA256       uint16 = 0x1301
	CipherAES256GCMSHA384       uint16 = 0x1302
	CipherCHACHA20POLY1305SHA256 uint16 = 0x1303
	CipherECDHEECDSAAES128GCM   uint16 = 0xc02b
	CipherECDHERSAAES128GCM     uint16 = 0xc02f
	CipherECDHEECDSAAES256GCM   uint16 = 0xc02c
	CipherECDHERSAAES256GCM     uint16 = 0xc030
	CipherECDHEECDSACHACHA20    uint16 = 0xcca9
	CipherECDHERSACHACHA20      uint16 = 0xcca8
	CipherRSAAES128GCM          uint16 = 0x009c
	CipherRSAAES256GCM          uint16 = 0x009d
	CipherRSAAES128CBC          uint16 = 0x002f
	CipherRSAAES256CBC          uint16 = 0x0035
	CipherECDHEECDSAAES128CBC   uint16 = 0xc009
	CipherECDHERSAAES128CBC     uint16 = 0xc013
	CipherECDHEECDSAAES256CBC   uint16 = 0xc00a
	CipherECDHERSAAES256CBC     uint16 = 0xc014
)

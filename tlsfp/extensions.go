package tlsfp

import "encoding/binary"

// Extension is the per-variant serialisation contract for one ClientHello
// extension (spec.md §3 "Extension spec" tagged variant, §4.2 rule 5). Each
// variant knows its own wire type and how to marshal its payload; GREASE
// resolution and record-length bookkeeping are handled by the composer.
type Extension interface {
	// Type returns the wire extension type, or a GREASE sentinel (see
	// IsGREASEExt) for entries whose concrete value is chosen per build.
	Type() uint16
	// IsGREASEExt reports whether this entry is a GREASE placeholder that
	// must be resolved to a fresh random value by the composer.
	IsGREASEExt() bool
	// Payload returns the extension_data bytes given the active build
	// context (SNI string, resolved GREASE value, current partial length
	// for padding calculations).
	Payload(ctx *BuildContext) ([]byte, error)
}

// BuildContext carries the per-connection dynamic material a handful of
// extensions need while marshaling (spec.md §4.2 rule 5).
type BuildContext struct {
	SNI             string
	GREASEValue     uint16 // the value resolved for this slot, if IsGREASEExt
	PartialLenSoFar int    // full ClientHello length emitted before this extension, for Padding
	Keys            *EphemeralKeys
	Grease          *greasePicker // shared across the whole ClientHello build (property P3)

	helloPrefix int // version+random+session_id+cipher_suites+compression+ext-length-prefix, set once by the composer
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func lenPrefixed16(body []byte) []byte {
	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))
	copy(out[2:], body)
	return out
}

// GREASEExtension is a placeholder extension slot; the composer assigns it
// a fresh GREASE type and an empty payload.
type GREASEExtension struct{}

func (GREASEExtension) Type() uint16         { return 0 }
func (GREASEExtension) IsGREASEExt() bool    { return true }
func (GREASEExtension) Payload(*BuildContext) ([]byte, error) { return nil, nil }

// SNIExtension carries server_name (RFC 6066 §3). The host is filled in per
// connection via BuildContext.SNI; if empty the composer omits the
// extension entirely (spec.md §4.2 rule 5).
type SNIExtension struct{}

func (SNIExtension) Type() uint16      { return ExtServerName }
func (SNIExtension) IsGREASEExt() bool { return false }
func (SNIExtension) Payload(ctx *BuildContext) ([]byte, error) {
	name := []byte(ctx.SNI)
	entry := append([]byte{0x00}, lenPrefixed16(name)...) // name_type=host_name
	return lenPrefixed16(entry), nil
}

// SupportedVersionsExtension lists offered TLS versions (RFC 8446 §4.2.1).
// GREASE entries in Versions resolve to a fresh GREASE value each build.
type SupportedVersionsExtension struct {
	Versions []uint16 // entries equal to 0 mark a GREASE slot
}

func (SupportedVersionsExtension) Type() uint16      { return ExtSupportedVersions }
func (SupportedVersionsExtension) IsGREASEExt() bool { return false }
func (e *SupportedVersionsExtension) Payload(ctx *BuildContext) ([]byte, error) {
	var body []byte
	for _, v := range e.Versions {
		if v == 0 {
			g, err := ctx.Grease.next()
			if err != nil {
				return nil, err
			}
			body = append(body, u16(g)...)
			continue
		}
		body = append(body, u16(v)...)
	}
	out := append([]byte{byte(len(body))}, body...)
	return out, nil
}

// SupportedGroupsExtension lists named groups (RFC 8446 §4.2.7). A zero
// entry marks a GREASE slot.
type SupportedGroupsExtension struct {
	Groups []uint16
}

func (SupportedGroupsExtension) Type() uint16      { return ExtSupportedGroups }
func (SupportedGroupsExtension) IsGREASEExt() bool { return false }
func (e *SupportedGroupsExtension) Payload(ctx *BuildContext) ([]byte, error) {
	var body []byte
	for _, grp := range e.Groups {
		if grp == 0 {
			g, err := ctx.Grease.next()
			if err != nil {
				return nil, err
			}
			body = append(body, u16(g)...)
			continue
		}
		body = append(body, u16(grp)...)
	}
	return lenPrefixed16(body), nil
}

// ECPointFormatsExtension (RFC 8422 §5.1.1); always uncompressed (0) for
// the profiles in this catalogue.
type ECPointFormatsExtension struct {
	Formats []byte
}

func (ECPointFormatsExtension) Type() uint16      { return ExtECPointFormats }
func (ECPointFormatsExtension) IsGREASEExt() bool { return false }
func (e *ECPointFormatsExtension) Payload(*BuildContext) ([]byte, error) {
	return append([]byte{byte(len(e.Formats))}, e.Formats...), nil
}

// SignatureAlgorithmsExtension (RFC 8446 §4.2.3).
type SignatureAlgorithmsExtension struct {
	Schemes []uint16
}

func (SignatureAlgorithmsExtension) Type() uint16      { return ExtSignatureAlgorithms }
func (SignatureAlgorithmsExtension) IsGREASEExt() bool { return false }
func (e *SignatureAlgorithmsExtension) Payload(*BuildContext) ([]byte, error) {
	var body []byte
	for _, s := range e.Schemes {
		body = append(body, u16(s)...)
	}
	return lenPrefixed16(body), nil
}

// ALPNExtension (RFC 7301). Order is significant: index 0 is the most
// preferred protocol.
type ALPNExtension struct {
	Protocols []string
}

func (ALPNExtension) Type() uint16      { return ExtALPN }
func (ALPNExtension) IsGREASEExt() bool { return false }
func (e *ALPNExtension) Payload(*BuildContext) ([]byte, error) {
	var body []byte
	for _, p := range e.Protocols {
		body = append(body, byte(len(p)))
		body = append(body, p...)
	}
	return lenPrefixed16(body), nil
}

// PSKKeyExchangeModesExtension (RFC 8446 §4.2.9).
type PSKKeyExchangeModesExtension struct {
	Modes []byte
}

func (PSKKeyExchangeModesExtension) Type() uint16      { return ExtPSKKeyExchangeModes }
func (PSKKeyExchangeModesExtension) IsGREASEExt() bool { return false }
func (e *PSKKeyExchangeModesExtension) Payload(*BuildContext) ([]byte, error) {
	return append([]byte{byte(len(e.Modes))}, e.Modes...), nil
}

// KeyShareGroup is one entry of a KeyShareExtension's offer list. A Group
// of 0 marks a GREASE slot (spec.md §4.2 rule 5: stub public key, length
// equal to that group's configured stub length).
type KeyShareGroup struct {
	Group      uint16
	StubLength int // only used when Group==0 (GREASE)
}

// KeyShareExtension (RFC 8446 §4.2.8). The composer generates one ephemeral
// key pair per non-GREASE group via EphemeralKeys.
type KeyShareExtension struct {
	Groups []KeyShareGroup
}

func (KeyShareExtension) Type() uint16      { return ExtKeyShare }
func (KeyShareExtension) IsGREASEExt() bool { return false }
func (e *KeyShareExtension) Payload(ctx *BuildContext) ([]byte, error) {
	var body []byte
	for _, ks := range e.Groups {
		if ks.Group == 0 {
			grp, err := ctx.Grease.next()
			if err != nil {
				return nil, err
			}
			stub := make([]byte, ks.StubLength)
			if len(stub) == 0 {
				stub = []byte{0x00}
			}
			body = append(body, u16(grp)...)
			body = append(body, lenPrefixed16(stub)...)
			continue
		}
		pub, err := ctx.Keys.PublicKeyFor(ks.Group)
		if err != nil {
			return nil, err
		}
		body = append(body, u16(ks.Group)...)
		body = append(body, lenPrefixed16(pub)...)
	}
	return lenPrefixed16(body), nil
}

// PaddingPolicy controls how the Padding extension computes its length
// (spec.md §4.2 rule 5).
type PaddingPolicy struct {
	// TargetIfShorterThan: if >0 and the ClientHello so far (through this
	// extension's header) is shorter than this many bytes, pad to exactly
	// this length (Chrome-style pad_to_512_if_shorter_than).
	TargetIfShorterThan int
	// FixedLength pads to exactly this many zero bytes when
	// TargetIfShorterThan is 0.
	FixedLength int
}

// PaddingExtension emits zero bytes per PaddingPolicy (RFC 7685).
type PaddingExtension struct {
	Policy PaddingPolicy
}

func (PaddingExtension) Type() uint16      { return ExtPadding }
func (PaddingExtension) IsGREASEExt() bool { return false }
func (e *PaddingExtension) Payload(ctx *BuildContext) ([]byte, error) {
	if e.Policy.TargetIfShorterThan > 0 {
		// ctx.PartialLenSoFar counts everything before this extension but
		// not its own 4-byte type+length header; subtracting those 4 bytes
		// makes header plus pad end exactly at the target.
		remaining := e.Policy.TargetIfShorterThan - ctx.PartialLenSoFar - 4
		if remaining < 0 {
			remaining = 0
		}
		return make([]byte, remaining), nil
	}
	return make([]byte, e.Policy.FixedLength), nil
}

// ApplicationSettingsExtension (ALPS, used by Chrome for h2 settings
// negotiation).
type ApplicationSettingsExtension struct {
	Protocols []string
	Compat    bool // use the 17613 codepoint instead of 17513
}

func (e ApplicationSettingsExtension) Type() uint16 {
	if e.Compat {
		return ExtApplicationSettingsCompat
	}
	return ExtApplicationSettings
}
func (ApplicationSettingsExtension) IsGREASEExt() bool { return false }
func (e *ApplicationSettingsExtension) Payload(*BuildContext) ([]byte, error) {
	var body []byte
	for _, p := range e.Protocols {
		body = append(body, byte(len(p)))
		body = append(body, p...)
	}
	return lenPrefixed16(body), nil
}

// CertCompressionAlgsExtension (RFC 8879).
type CertCompressionAlgsExtension struct {
	Algorithms []uint16
}

func (CertCompressionAlgsExtension) Type() uint16      { return ExtCompressCertificate }
func (CertCompressionAlgsExtension) IsGREASEExt() bool { return false }
func (e *CertCompressionAlgsExtension) Payload(*BuildContext) ([]byte, error) {
	var body []byte
	for _, a := range e.Algorithms {
		body = append(body, u16(a)...)
	}
	return append([]byte{byte(len(body))}, body...), nil
}

// RecordSizeLimitExtension (RFC 8449).
type RecordSizeLimitExtension struct {
	Limit uint16
}

func (RecordSizeLimitExtension) Type() uint16      { return ExtRecordSizeLimit }
func (RecordSizeLimitExtension) IsGREASEExt() bool { return false }
func (e *RecordSizeLimitExtension) Payload(*BuildContext) ([]byte, error) {
	return u16(e.Limit), nil
}

// EncryptedClientHelloExtension carries an opaque, pre-built ECH payload;
// ghostwire treats ECH as an external collaborator concern and only emits
// whatever payload the profile supplies.
type EncryptedClientHelloExtension struct {
	Payload_ []byte
}

func (EncryptedClientHelloExtension) Type() uint16      { return ExtEncryptedClientHello }
func (EncryptedClientHelloExtension) IsGREASEExt() bool { return false }
func (e *EncryptedClientHelloExtension) Payload(*BuildContext) ([]byte, error) {
	return e.Payload_, nil
}

// EmptyExtension covers the zero-payload extensions every modern browser
// sends unconditionally: extended_master_secret, session_ticket (empty
// ticket), renegotiation_info (empty), status_request, signed_certificate
//_timestamp. The Type is fixed at construction.
type EmptyExtension struct {
	Type_     uint16
	FixedData []byte // renegotiation_info and status_request carry a tiny fixed body
}

func (e EmptyExtension) Type() uint16      { return e.Type_ }
func (EmptyExtension) IsGREASEExt() bool    { return false }
func (e *EmptyExtension) Payload(*BuildContext) ([]byte, error) {
	return e.FixedData, nil
}

// GenericExtension is the escape hatch for any extension type the spec
// doesn't model explicitly (spec.md §3 "Generic(type, payload)").
type GenericExtension struct {
	Type_   uint16
	RawData []byte
}

func (e GenericExtension) Type() uint16      { return e.Type_ }
func (GenericExtension) IsGREASEExt() bool    { return false }
func (e *GenericExtension) Payload(*BuildContext) ([]byte, error) {
	return e.RawData, nil
}

// RenegotiationInfo builds the standard empty renegotiation_info body
// (RFC 5746): a single zero length byte.
func RenegotiationInfo() *EmptyExtension {
	return &EmptyExtension{Type_: ExtRenegotiationInfo, FixedData: []byte{0x00}}
}

// StatusRequest builds the standard OCSP status_request body
// (status_type=1, empty responder_id_list and request_extensions).
func StatusRequest() *EmptyExtension {
	return &EmptyExtension{Type_: ExtStatusRequest, FixedData: []byte{0x01, 0x00, 0x00, 0x00, 0x00}}
}

// ExtendedMasterSecret, SessionTicket and SCT all carry an empty body.
func ExtendedMasterSecret() *EmptyExtension {
	return &EmptyExtension{Type_: ExtExtendedMasterSecret}
}

func SessionTicket() *EmptyExtension {
	return &EmptyExtension{Type_: ExtSessionTicket}
}

func SCT() *EmptyExtension {
	return &EmptyExtension{Type_: ExtSignedCertificateTimestamp}
}

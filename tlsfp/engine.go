package tlsfp

import (
	"context"
	"fmt"
	"net"

	utls "github.com/refraction-networking/utls"
)

// Engine performs the post-ClientHello handshake: ServerHello processing,
// record layer encryption, certificate verification. spec.md §1 treats this
// as out of scope for the core and an externally provided primitive; Engine
// is the seam ghostwire's dialer (dialTLS in dial.go) calls through.
//
// BuildClientHello (above) is independent of Engine: callers that only want
// the raw bytes for passive analysis or wire inspection never touch it.
type Engine interface {
	// Handshake dials the TLS handshake over conn using the fingerprint
	// described by spec, presenting sni and offering alpn. It returns a
	// net.Conn ready for application data once the handshake completes.
	Handshake(ctx context.Context, conn net.Conn, spec *Spec, sni string, alpn []string, verify bool) (net.Conn, string, error)
}

// UTLSEngine drives the handshake with refraction-networking/utls, seeding
// a uTLS connection with our composed Spec via ApplyPreset so the same
// fingerprint recipe governs both the bytes ghostwire can inspect offline
// (BuildClientHello) and the bytes actually placed on the wire during a
// real connection.
type UTLSEngine struct{}

func (UTLSEngine) Handshake(ctx context.Context, conn net.Conn, spec *Spec, sni string, alpn []string, verify bool) (net.Conn, string, error) {
	uSpec := toUTLSSpec(spec, alpn)
	cfg := &utls.Config{
		ServerName:         sni,
		InsecureSkipVerify: !verify,
		NextProtos:         alpn,
	}
	uconn := utls.UClient(conn, cfg, utls.HelloCustom)
	if err := uconn.ApplyPreset(&uSpec); err != nil {
		return nil, "", fmt.Errorf("tlsfp: apply client hello preset: %w", err)
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		return nil, "", fmt.Errorf("tlsfp: tls handshake: %w", err)
	}
	return uconn, uconn.ConnectionState().NegotiatedProtocol, nil
}

// toUTLSSpec projects our Spec onto utls.ClientHelloSpec so the same cipher
// order, compression methods and TLS version bounds reach the handshake;
// the extension *order* we composed is preserved by re-emitting each
// extension as the closest matching utls extension type, falling back to a
// GenericExtension passthrough (utls.GenericExtension) for anything with no
// first-class utls counterpart.
func toUTLSSpec(spec *Spec, alpn []string) utls.ClientHelloSpec {
	ciphers := make([]uint16, len(spec.CipherSuites))
	for i, cs := range spec.CipherSuites {
		if cs == greaseCipherSentinel {
			ciphers[i] = utls.GREASE_PLACEHOLDER
			continue
		}
		ciphers[i] = uint16(cs)
	}

	exts := make([]utls.TLSExtension, 0, len(spec.Extensions))
	for _, e := range spec.Extensions {
		exts = append(exts, projectExtension(e, alpn))
	}

	return utls.ClientHelloSpec{
		CipherSuites:       ciphers,
		CompressionMethods: append([]byte(nil), spec.CompressionMethods...),
		Extensions:         exts,
		TLSVersMin:         spec.TLSVersionMin,
		TLSVersMax:         spec.TLSVersionMax,
	}
}

func projectExtension(e Extension, alpn []string) utls.TLSExtension {
	switch v := e.(type) {
	case SNIExtension:
		return &utls.SNIExtension{}
	case *ALPNExtension:
		protos := v.Protocols
		if len(alpn) > 0 {
			protos = alpn
		}
		return &utls.ALPNExtension{AlpnProtocols: protos}
	case *SupportedVersionsExtension:
		return &utls.SupportedVersionsExtension{Versions: v.Versions}
	case *SupportedGroupsExtension:
		curves := make([]utls.CurveID, len(v.Groups))
		for i, g := range v.Groups {
			curves[i] = utls.CurveID(g)
		}
		return &utls.SupportedCurvesExtension{Curves: curves}
	case *ECPointFormatsExtension:
		return &utls.SupportedPointsExtension{SupportedPoints: v.Formats}
	case *SignatureAlgorithmsExtension:
		schemes := make([]utls.SignatureScheme, len(v.Schemes))
		for i, s := range v.Schemes {
			schemes[i] = utls.SignatureScheme(s)
		}
		return &utls.SignatureAlgorithmsExtension{SupportedSignatureAlgorithms: schemes}
	case *PSKKeyExchangeModesExtension:
		return &utls.PSKKeyExchangeModesExtension{Modes: v.Modes}
	case *KeyShareExtension:
		ks := make([]utls.KeyShare, len(v.Groups))
		for i, g := range v.Groups {
			group := utls.CurveID(g.Group)
			if g.Group == 0 {
				group = utls.CurveID(utls.GREASE_PLACEHOLDER)
			}
			ks[i] = utls.KeyShare{Group: group}
		}
		return &utls.KeyShareExtension{KeyShares: ks}
	case *RecordSizeLimitExtension:
		return &utls.GenericExtension{Id: ExtRecordSizeLimit, Data: u16(v.Limit)}
	case *EmptyExtension:
		return &utls.GenericExtension{Id: v.Type_, Data: v.FixedData}
	case *GenericExtension:
		return &utls.GenericExtension{Id: v.Type_, Data: v.RawData}
	case *PaddingExtension:
		return &utls.UtlsPaddingExtension{GetPaddingLen: utls.BoringPaddingStyle}
	case *ApplicationSettingsExtension:
		return &utls.GenericExtension{Id: v.Type(), Data: alpsPayload(v.Protocols)}
	case *CertCompressionAlgsExtension:
		algs := make([]utls.CertCompressionAlgo, len(v.Algorithms))
		for i, a := range v.Algorithms {
			algs[i] = utls.CertCompressionAlgo(a)
		}
		return &utls.UtlsCompressCertExtension{Algorithms: algs}
	case GREASEExtension:
		return &utls.UtlsGREASEExtension{}
	default:
		return &utls.GenericExtension{Id: e.Type()}
	}
}

func alpsPayload(protocols []string) []byte {
	var body []byte
	for _, p := range protocols {
		body = append(body, byte(len(p)))
		body = append(body, p...)
	}
	return body
}

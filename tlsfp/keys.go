package tlsfp

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
)

// EphemeralKeys holds the per-group key pairs generated for one
// ClientHello's KeyShare entries (spec.md §4.2 "build_client_hello" return
// value). Private keys are retained only long enough for the caller's TLS
// engine to complete the handshake; ghostwire's composer never uses them
// itself beyond deriving the public share.
type EphemeralKeys struct {
	private map[uint16]*ecdh.PrivateKey
	public  map[uint16][]byte
}

func newEphemeralKeys() *EphemeralKeys {
	return &EphemeralKeys{
		private: make(map[uint16]*ecdh.PrivateKey),
		public:  make(map[uint16][]byte),
	}
}

// Generate produces a fresh key pair for group using the appropriate
// primitive (X25519, P-256, P-384; spec.md §4.2 rule 5). Unsupported groups
// (e.g. hybrid PQ groups this build doesn't have a KEM for) yield
// ErrCryptoUnavailable.
func (k *EphemeralKeys) Generate(group uint16) error {
	curve, err := ecdhCurveFor(group)
	if err != nil {
		return err
	}
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("tlsfp: %w: %v", ErrCryptoUnavailable, err)
	}
	k.private[group] = priv
	k.public[group] = priv.PublicKey().Bytes()
	return nil
}

// PublicKeyFor returns the public share for group, generating it lazily if
// it hasn't been produced yet in this build.
func (k *EphemeralKeys) PublicKeyFor(group uint16) ([]byte, error) {
	if pub, ok := k.public[group]; ok {
		return pub, nil
	}
	if err := k.Generate(group); err != nil {
		return nil, err
	}
	return k.public[group], nil
}

// PrivateKeyFor returns the ecdh private key generated for group, for use
// by a TLS engine computing the shared secret after ServerHello.
func (k *EphemeralKeys) PrivateKeyFor(group uint16) (*ecdh.PrivateKey, bool) {
	priv, ok := k.private[group]
	return priv, ok
}

func ecdhCurveFor(group uint16) (ecdh.Curve, error) {
	switch group {
	case GroupX25519:
		return ecdh.X25519(), nil
	case GroupP256:
		return ecdh.P256(), nil
	case GroupP384:
		return ecdh.P384(), nil
	case GroupP521:
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("tlsfp: %w: unsupported key-share group 0x%04x", ErrCryptoUnavailable, group)
	}
}

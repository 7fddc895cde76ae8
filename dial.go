package ghostwire

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/quic-go/quic-go"

	"github.com/duskmantle/ghostwire/pool"
	"github.com/duskmantle/ghostwire/profile"
	"github.com/duskmantle/ghostwire/tlsfp"
)

// dialTCP opens a raw TCP connection to host:port (through the configured
// proxy, if any) and applies the profile's window-size hint via
// applyTCPHints. The profile's TTL and option order are not set on the
// socket.
func (c *Client) dialTCP(ctx context.Context, host string, port int, tcp profile.TCP) (net.Conn, error) {
	d := &net.Dialer{Timeout: c.cfg.ConnectTimeout}
	hostPort := net.JoinHostPort(host, fmt.Sprint(port))

	var conn net.Conn
	var err error
	if c.cfg.Proxy != nil {
		conn, err = c.cfg.Proxy.dial(ctx, "tcp", hostPort)
	} else {
		conn, err = d.DialContext(ctx, "tcp", hostPort)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Op: "connect"}
		}
		return nil, &ConnectionFailedError{Err: err}
	}
	applyTCPHints(conn, tcp)
	return conn, nil
}

// applyTCPHints sets the window-size hint via SetReadBuffer where the
// underlying conn supports it. TTL and option ordering aren't exposed by
// net.Conn at all, so they remain advisory metadata on the profile rather
// than wire-applied (spec.md §9 Open Questions, profile.TCP doc comment).
func applyTCPHints(conn net.Conn, tcp profile.TCP) {
	type bufSetter interface{ SetReadBuffer(bytes int) error }
	if bs, ok := conn.(bufSetter); ok {
		_ = bs.SetReadBuffer(int(tcp.WindowSize))
	}
}

// dialTLS performs the fingerprinted TLS handshake over a fresh TCP
// connection using the configured Engine (spec.md §4.2/§4.4).
func (c *Client) dialTLS(ctx context.Context, host string, port int, alpn []string) (net.Conn, string, error) {
	tcp := profile.TCP{}
	if c.cfg.Profile != nil {
		tcp = c.cfg.Profile.TCP
	}
	conn, err := c.dialTCP(ctx, host, port, tcp)
	if err != nil {
		return nil, "", err
	}

	spec := defaultTLSSpec()
	if c.cfg.Profile != nil && c.cfg.Profile.TLS != nil {
		spec = c.cfg.Profile.TLS
	}

	tconn, negotiated, err := c.cfg.Engine.Handshake(ctx, conn, spec, host, alpn, c.cfg.VerifyTLS)
	if err != nil {
		conn.Close()
		return nil, "", &TlsError{Msg: err.Error()}
	}
	return tconn, negotiated, nil
}

// defaultTLSSpec gives a minimal, unremarkable ClientHello for requests
// made without a profile, rather than refusing to connect. Real
// fingerprinting only happens once a profile is attached.
func defaultTLSSpec() *tlsfp.Spec {
	return &tlsfp.Spec{
		TLSVersionMin: tls.VersionTLS12,
		TLSVersionMax: tls.VersionTLS13,
		CipherSuites: []tlsfp.CipherSuite{
			tlsfp.CipherSuite(tls.TLS_AES_128_GCM_SHA256),
			tlsfp.CipherSuite(tls.TLS_CHACHA20_POLY1305_SHA256),
			tlsfp.CipherSuite(tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256),
		},
		CompressionMethods: []byte{0},
		ALPN:               []string{"h2", "http/1.1"},
	}
}

// dialQUIC performs the QUIC handshake for HTTP/3. The ClientHello shape
// emitted here follows tls.Config's negotiated defaults rather than the
// utls Engine seam, since quic-go owns its own TLS stack
// (spec.md §9 Open Questions: QUIC-layer fingerprinting is future work).
func (c *Client) dialQUIC(ctx context.Context, host string, port int) (quic.Connection, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	tlsCfg := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: !c.cfg.VerifyTLS,
		NextProtos:         []string{"h3"},
	}
	conn, err := quic.DialAddr(ctx, addr, tlsCfg, nil)
	if err != nil {
		return nil, &ConnectionFailedError{Err: err}
	}
	return conn, nil
}

func (c *Client) sessionKeyFor(scheme, host string, port int, alpn string) pool.SessionKey {
	key := pool.SessionKey{Scheme: scheme, Host: host, Port: port, ALPN: alpn}
	if c.cfg.Proxy != nil {
		key.Proxy = c.cfg.Proxy.Address
	}
	return key
}

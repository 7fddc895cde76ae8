package ghostwire

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"

	xproxy "golang.org/x/net/proxy"
)

// ProxyKind selects the proxy handshake spec.md §4.5 names: HTTP CONNECT,
// HTTPS CONNECT (identical wire handshake, only the proxy leg's own
// transport differs) and SOCKS5.
type ProxyKind int

const (
	ProxyHTTPConnect ProxyKind = iota
	ProxyHTTPSConnect
	ProxySOCKS5
)

// ProxyConfig describes an upstream proxy (spec.md §4.5 "proxy").
// Everything downstream of the proxy handshake — TLS, session pooling — is
// identical to the no-proxy path; the L7 pool key folds Address in so a
// proxied and direct session to the same origin never collide (spec.md
// §4.5 "Proxy semantics").
type ProxyConfig struct {
	Kind     ProxyKind
	Address  string // host:port of the proxy itself
	Username string
	Password string
}

// dial establishes a connection to targetHostPort, routed through the
// proxy per its Kind. The returned conn is ready for the TLS handshake (or
// plaintext HTTP/1.1 traffic) to targetHostPort; CONNECT and SOCKS5 both
// complete *before* TLS starts (spec.md §4.5 "Proxy semantics").
func (p *ProxyConfig) dial(ctx context.Context, network, targetHostPort string) (net.Conn, error) {
	switch p.Kind {
	case ProxyHTTPConnect, ProxyHTTPSConnect:
		return p.dialConnect(ctx, network, targetHostPort)
	case ProxySOCKS5:
		return p.dialSOCKS5(ctx, network, targetHostPort)
	default:
		return nil, fmt.Errorf("ghostwire: unknown proxy kind %d", p.Kind)
	}
}

func (p *ProxyConfig) dialConnect(ctx context.Context, network, targetHostPort string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, p.Address)
	if err != nil {
		return nil, &ConnectionFailedError{Err: err}
	}
	if p.Kind == ProxyHTTPSConnect {
		proxyHost, _, err := net.SplitHostPort(p.Address)
		if err != nil {
			conn.Close()
			return nil, &ConnectionFailedError{Err: err}
		}
		tconn := tls.Client(conn, &tls.Config{ServerName: proxyHost})
		if err := tconn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, &ConnectionFailedError{Err: err}
		}
		conn = tconn
	}

	reqLine := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n", targetHostPort, targetHostPort)
	if p.Username != "" {
		authReq := &http.Request{Header: make(http.Header)}
		authReq.SetBasicAuth(p.Username, p.Password)
		reqLine += "Proxy-Authorization: " + authReq.Header.Get("Authorization") + "\r\n"
	}
	reqLine += "\r\n"

	if _, err := conn.Write([]byte(reqLine)); err != nil {
		conn.Close()
		return nil, &ConnectionFailedError{Err: err}
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		conn.Close()
		return nil, &ConnectionFailedError{Err: err}
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, &ConnectionFailedError{Err: fmt.Errorf("proxy CONNECT: %s", resp.Status)}
	}
	return conn, nil
}

func (p *ProxyConfig) dialSOCKS5(ctx context.Context, network, targetHostPort string) (net.Conn, error) {
	var auth *xproxy.Auth
	if p.Username != "" {
		auth = &xproxy.Auth{User: p.Username, Password: p.Password}
	}
	dialer, err := xproxy.SOCKS5(network, p.Address, auth, xproxy.Direct)
	if err != nil {
		return nil, &ConnectionFailedError{Err: err}
	}
	if ctxDialer, ok := dialer.(xproxy.ContextDialer); ok {
		conn, err := ctxDialer.DialContext(ctx, network, targetHostPort)
		if err != nil {
			return nil, &ConnectionFailedError{Err: err}
		}
		return conn, nil
	}
	conn, err := dialer.Dial(network, targetHostPort)
	if err != nil {
		return nil, &ConnectionFailedError{Err: err}
	}
	return conn, nil
}

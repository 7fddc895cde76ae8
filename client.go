package ghostwire

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/duskmantle/ghostwire/headers"
	"github.com/duskmantle/ghostwire/internal/h1"
	"github.com/duskmantle/ghostwire/internal/h2"
	"github.com/duskmantle/ghostwire/internal/h3"
	"github.com/duskmantle/ghostwire/pool"
	"github.com/duskmantle/ghostwire/profile"
	"github.com/duskmantle/ghostwire/urlutil"
)

// Client is the orchestrator (spec.md §4.5, C5): one Client reuses its
// pools and cookie jar across every request made through it.
type Client struct {
	cfg Config
}

// New builds a Client from cfg, filling in any pool/jar/engine left nil
// with DefaultConfig's values.
func New(cfg Config) *Client {
	d := DefaultConfig()
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = d.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = d.WriteTimeout
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = d.MaxRedirects
	}
	if cfg.CookieJar == nil {
		cfg.CookieJar = d.CookieJar
	}
	if cfg.TCPPool == nil {
		cfg.TCPPool = d.TCPPool
	}
	if cfg.SessionPool == nil {
		cfg.SessionPool = d.SessionPool
	}
	if cfg.Engine == nil {
		cfg.Engine = d.Engine
	}
	return &Client{cfg: cfg}
}

// Get issues a GET request (spec.md §4.5 public contract).
func (c *Client) Get(url string) (*Response, error) {
	return c.Send(newRequest("GET", url))
}

// Post issues a POST request with body.
func (c *Client) Post(url string, body []byte) (*Response, error) {
	req := newRequest("POST", url)
	req.Body = body
	return c.Send(req)
}

// Send drives req through the full algorithm of spec.md §4.5: header
// merge, cookie injection, protocol selection, transport, and redirect
// following.
func (c *Client) Send(req *Request) (*Response, error) {
	return c.do(context.Background(), req, map[string]bool{}, nil, 0)
}

func (c *Client) do(ctx context.Context, req *Request, visited map[string]bool, chain []string, redirectCount int) (*Response, error) {
	target, err := urlutil.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	norm := target.String()
	if visited[norm] {
		return nil, &RedirectCycleError{URL: norm}
	}
	visited[norm] = true

	hdrs := c.mergeHeaders(req.Headers)
	if c.cfg.CookieJar != nil {
		if cookie := c.cfg.CookieJar.Header(target.Host, target.Path, target.Scheme == "https"); cookie != "" {
			hdrs.Set("Cookie", cookie)
		}
	}
	if _, ok := hdrs.Get("Host"); !ok {
		hdrs.Set("Host", target.Authority())
	}

	resp, err := c.exchange(ctx, req.Method, target, hdrs, req.Body)
	if err != nil {
		return nil, err
	}

	if setCookies := resp.Headers.Values("Set-Cookie"); len(setCookies) > 0 && c.cfg.CookieJar != nil {
		c.cfg.CookieJar.SetFromHeader(target.Host, setCookies)
	}

	if loc, ok := isRedirect(resp); ok {
		if redirectCount+1 >= c.cfg.MaxRedirects {
			return nil, &TooManyRedirectsError{Max: c.cfg.MaxRedirects}
		}
		next, err := urlutil.ResolveReference(target, loc)
		if err != nil {
			return nil, err
		}
		nextReq := &Request{Method: req.Method, URL: next.String(), Headers: req.Headers, Body: req.Body}
		if resp.StatusCode == 301 || resp.StatusCode == 302 || resp.StatusCode == 303 {
			if req.Method != "GET" && req.Method != "HEAD" {
				nextReq.Method = "GET"
				nextReq.Body = nil
			}
		}
		chain = append(chain, norm)
		return c.do(ctx, nextReq, visited, chain, redirectCount+1)
	}

	resp.FinalURL = norm
	resp.RedirectChain = chain
	return resp, nil
}

func isRedirect(resp *Response) (string, bool) {
	switch resp.StatusCode {
	case 301, 302, 303, 307, 308:
		loc, ok := resp.Headers.Get("Location")
		return loc, ok && loc != ""
	default:
		return "", false
	}
}

// mergeHeaders implements spec.md §4.5 step 1: the profile's canonical
// header list in its own order, with the request's headers overriding
// matching names by value and appending anything new.
func (c *Client) mergeHeaders(reqHeaders *headers.List) *headers.List {
	var base *headers.List
	if c.cfg.Profile != nil {
		base = c.cfg.Profile.Headers.Build()
	} else {
		base = headers.New()
		if ua := c.cfg.effectiveUserAgent(); ua != "" {
			base.Add("User-Agent", ua)
		}
	}
	return base.MergeOverride(reqHeaders)
}

// exchange selects a protocol per spec.md §4.5 step 4 and dispatches,
// falling back to the next candidate on handshake or protocol-level
// failure.
func (c *Client) exchange(ctx context.Context, method string, target *urlutil.URL, hdrs *headers.List, body []byte) (*Response, error) {
	if target.Scheme == "http" {
		return c.exchangeH1(ctx, method, target, hdrs, body, false)
	}

	var attempts *multierror.Error

	if c.cfg.PreferHTTP3 {
		resp, err := c.exchangeH3(ctx, method, target, hdrs, body)
		if err == nil {
			return resp, nil
		}
		attempts = multierror.Append(attempts, fmt.Errorf("http/3: %w", err))
	}
	if c.cfg.PreferHTTP2 || c.cfg.PreferHTTP3 {
		resp, err := c.exchangeH2(ctx, method, target, hdrs, body)
		if err == nil {
			return resp, nil
		}
		attempts = multierror.Append(attempts, fmt.Errorf("http/2: %w", err))
	}
	resp, err := c.exchangeH1(ctx, method, target, hdrs, body, true)
	if err == nil {
		return resp, nil
	}
	attempts = multierror.Append(attempts, fmt.Errorf("http/1.1: %w", err))
	return nil, attempts.ErrorOrNil()
}

// exchangeH1 acquires (or opens) an L4 connection and round-trips a single
// HTTP/1.1 exchange (spec.md §4.5 steps 5/6).
func (c *Client) exchangeH1(ctx context.Context, method string, target *urlutil.URL, hdrs *headers.List, body []byte, useTLS bool) (*Response, error) {
	key := pool.TCPKey{Host: target.Host, Port: target.Port, SNI: target.Host}
	conn, err := c.cfg.TCPPool.Acquire(key)
	if err != nil {
		return nil, &ConnectionFailedError{Err: err}
	}
	if conn == nil {
		if useTLS {
			tconn, _, err := c.dialTLS(ctx, target.Host, target.Port, []string{"http/1.1"})
			if err != nil {
				return nil, err
			}
			conn = tconn
		} else {
			tcp := profile.TCP{}
			if c.cfg.Profile != nil {
				tcp = c.cfg.Profile.TCP
			}
			conn, err = c.dialTCP(ctx, target.Host, target.Port, tcp)
			if err != nil {
				return nil, err
			}
		}
	}

	wireReq := &h1.Request{Method: method, Target: target.RequestTarget(), Headers: hdrs}
	if len(body) > 0 {
		wireReq.Body = bytes.NewReader(body)
	}
	if err := h1.WriteRequest(conn, wireReq); err != nil {
		conn.Close()
		return nil, &ConnectionFailedError{Err: err}
	}

	br := bufio.NewReader(conn)
	wireResp, err := h1.ReadResponse(br, h1.DefaultLimits())
	if err != nil {
		conn.Close()
		return nil, mapH1ReadError(err)
	}

	if wireResp.Close {
		conn.Close()
	} else {
		c.cfg.TCPPool.Release(key, conn)
	}

	return &Response{
		StatusCode: wireResp.StatusCode,
		Status:     wireResp.Status,
		Headers:    wireResp.Headers,
		Body:       wireResp.Body,
		Protocol:   "http/1.1",
	}, nil
}

// mapH1ReadError translates the h1 codec's error taxonomy onto
// ghostwire's own (spec.md §7): a cap being hit is ResourceExhausted, not
// ConnectionFailed — the connection itself is healthy, the response just
// exceeded a configured ceiling (property P10, scenario S6). Everything
// else structurally wrong with the response is InvalidResponse.
func mapH1ReadError(err error) error {
	switch e := err.(type) {
	case *h1.LimitExceededError:
		return &ResourceExhaustedError{Limit: e.Limit}
	case *h1.MalformedError:
		return &InvalidResponseError{Reason: e.Reason}
	case *h1.TruncatedError:
		return &InvalidResponseError{Reason: "truncated: " + e.Where}
	default:
		return &ConnectionFailedError{Err: err}
	}
}

// h2Conn serialises request/response pairs over a shared HTTP/2 session:
// internal/h2's Framer and HPACK encoder are single-writer, so two streams
// on the same session take turns rather than interleaving frames
// (spec.md §9 Open Questions: full concurrent multiplexing over one
// session is future work; the connection itself is still reused).
type h2Conn struct {
	mu   sync.Mutex
	sess *h2.Session
	conn net.Conn
}

// Close tears down the underlying TCP/TLS connection, e.g. when the pool
// evicts an idle session.
func (hc *h2Conn) Close() error {
	return hc.conn.Close()
}

func (c *Client) h2Handshake(target *urlutil.URL) pool.HandshakeFunc {
	return func(ctx context.Context) (*pool.Session, error) {
		tconn, negotiated, err := c.dialTLS(ctx, target.Host, target.Port, []string{"h2", "http/1.1"})
		if err != nil {
			return nil, err
		}
		if negotiated != "h2" {
			tconn.Close()
			return nil, &Http2Error{Msg: "server did not negotiate h2"}
		}
		settings := []profile.Setting{{ID: 1, Val: 4096}}
		var flow uint32
		var priorities []h2.PriorityFrame
		if c.cfg.Profile != nil {
			settings = c.cfg.Profile.HTTP2.Settings
			flow = c.cfg.Profile.HTTP2.ConnectionFlow
			for _, p := range c.cfg.Profile.HTTP2.PriorityFrames {
				priorities = append(priorities, h2.PriorityFrame{StreamID: p.StreamID, PriorityParam: p.PriorityParam})
			}
		}
		sess, err := h2.Open(tconn, settings, flow, priorities)
		if err != nil {
			tconn.Close()
			return nil, &Http2Error{Msg: err.Error()}
		}
		return pool.NewSession(&h2Conn{sess: sess, conn: tconn}), nil
	}
}

func (c *Client) exchangeH2(ctx context.Context, method string, target *urlutil.URL, hdrs *headers.List, body []byte) (*Response, error) {
	key := c.sessionKeyFor("https", target.Host, target.Port, "h2")
	ps, err := c.cfg.SessionPool.GetOrCreate(ctx, key, c.h2Handshake(target))
	if err != nil {
		return nil, &Http2Error{Msg: err.Error()}
	}
	hc, ok := ps.Handle.(*h2Conn)
	if !ok {
		return nil, &Http2Error{Msg: "pool entry is not an http/2 session"}
	}

	pseudoOrder := defaultH2PseudoOrder
	if c.cfg.Profile != nil && len(c.cfg.Profile.HTTP2.PseudoHeaderOrder) > 0 {
		pseudoOrder = make([]string, len(c.cfg.Profile.HTTP2.PseudoHeaderOrder))
		for i, p := range c.cfg.Profile.HTTP2.PseudoHeaderOrder {
			pseudoOrder[i] = string(p)
		}
	}
	pseudo := h2.PseudoHeaders{
		Method:    method,
		Authority: target.Authority(),
		Scheme:    target.Scheme,
		Path:      target.RequestTarget(),
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()

	streamID := hc.sess.NextStreamID()
	if err := hc.sess.WriteRequest(streamID, pseudoOrder, pseudo, hdrs, body); err != nil {
		c.cfg.SessionPool.MarkInvalid(key)
		return nil, &Http2Error{Msg: err.Error()}
	}
	wireResp, err := hc.sess.ReadResponse(streamID)
	if err != nil {
		c.cfg.SessionPool.MarkInvalid(key)
		if le, ok := err.(*h2.LimitExceededError); ok {
			return nil, &ResourceExhaustedError{Limit: le.Limit}
		}
		return nil, &Http2Error{Msg: err.Error()}
	}

	status, _ := strconv.Atoi(wireResp.Status)
	return &Response{StatusCode: status, Status: wireResp.Status, Headers: canonicalizeHeaderNames(wireResp.Headers), Body: wireResp.Body, Protocol: "h2"}, nil
}

// canonicalizeHeaderNames rebuilds hdrs with HTTP/1.1-style Title-Case names,
// since HTTP/2 and HTTP/3 deliver header names lowercased on the wire.
func canonicalizeHeaderNames(hdrs *headers.List) *headers.List {
	out := headers.New()
	for _, p := range hdrs.Pairs() {
		out.Add(headers.Canonical(p.Name), p.Value)
	}
	return out
}

var defaultH2PseudoOrder = []string{":method", ":authority", ":scheme", ":path"}

func (c *Client) h3Handshake(target *urlutil.URL) pool.HandshakeFunc {
	return func(ctx context.Context) (*pool.Session, error) {
		qconn, err := c.dialQUIC(ctx, target.Host, target.Port)
		if err != nil {
			return nil, err
		}
		var settings h3.TransportSettings
		if c.cfg.Profile != nil {
			settings.QPACKMaxTableCapacity = c.cfg.Profile.HTTP3.QPACKMaxTableCapacity
			settings.QPACKBlockedStreams = c.cfg.Profile.HTTP3.QPACKBlockedStreams
		}
		sess, err := h3.Open(ctx, qconn, settings)
		if err != nil {
			return nil, &Http3Error{Msg: err.Error()}
		}
		return pool.NewSession(sess), nil
	}
}

func (c *Client) exchangeH3(ctx context.Context, method string, target *urlutil.URL, hdrs *headers.List, body []byte) (*Response, error) {
	key := c.sessionKeyFor("https", target.Host, target.Port, "h3")
	ps, err := c.cfg.SessionPool.GetOrCreate(ctx, key, c.h3Handshake(target))
	if err != nil {
		return nil, &Http3Error{Msg: err.Error()}
	}
	sess, ok := ps.Handle.(*h3.Session)
	if !ok {
		return nil, &Http3Error{Msg: "pool entry is not an http/3 session"}
	}

	pseudo := h3.PseudoHeaders{
		Method:    method,
		Authority: target.Authority(),
		Scheme:    target.Scheme,
		Path:      target.RequestTarget(),
	}
	rs, err := sess.OpenRequest(ctx, defaultH2PseudoOrder, pseudo, hdrs, body)
	if err != nil {
		c.cfg.SessionPool.MarkInvalid(key)
		return nil, &Http3Error{Msg: err.Error()}
	}
	wireResp, err := rs.ReadResponse()
	if err != nil {
		c.cfg.SessionPool.MarkInvalid(key)
		if le, ok := err.(*h3.LimitExceededError); ok {
			return nil, &ResourceExhaustedError{Limit: le.Limit}
		}
		return nil, &Http3Error{Msg: err.Error()}
	}

	status, _ := strconv.Atoi(wireResp.Status)
	return &Response{StatusCode: status, Status: wireResp.Status, Headers: canonicalizeHeaderNames(wireResp.Headers), Body: wireResp.Body, Protocol: "h3"}, nil
}

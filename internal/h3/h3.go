// Package h3 implements the HTTP/3 wire codec (spec.md §4.3.3) on top of
// github.com/quic-go/quic-go for the QUIC transport and
// github.com/quic-go/qpack for header compression.
//
// The dynamic table is never grown: every profile in the catalogue
// advertises whatever table capacity it likes for fingerprinting purposes,
// but the codec itself only ever emits static-table or literal QPACK
// instructions, so no encoder/decoder stream coordination is required
// (spec.md §9 Open Questions: full QPACK dynamic-table support is
// unnecessary complexity for a client that never serves pushed resources).
package h3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/quicvarint"

	"github.com/duskmantle/ghostwire/headers"
)

const (
	streamTypeControl = 0x00

	DefaultHeaderListLimit = 1 << 20
	DefaultBodyLimit       = 100 << 20
)

// TransportSettings mirrors the subset of profile.HTTP3 the codec needs to
// announce on the control stream.
type TransportSettings struct {
	QPACKMaxTableCapacity uint64
	QPACKBlockedStreams   uint64
}

// Session owns one HTTP/3 connection: the QUIC connection on which Open
// set up the client control stream (spec.md §4.4.2 "session handle"). The
// control stream itself is not kept on the Session.
type Session struct {
	conn        quic.Connection
	headerLimit int
	bodyLimit   int
}

// Close tears down the underlying QUIC connection, e.g. when the pool
// evicts an idle session.
func (s *Session) Close() error {
	return s.conn.CloseWithError(0, "idle")
}

// Open establishes the client's unidirectional control stream and sends the
// profile's SETTINGS frame (QPACK table capacity / blocked streams) as the
// first bytes on it, per RFC 9114 §6.2.1.
func Open(ctx context.Context, conn quic.Connection, settings TransportSettings) (*Session, error) {
	ctrl, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("h3: opening control stream: %w", err)
	}
	var buf []byte
	buf = quicvarint.Append(buf, streamTypeControl)
	sf := &settingsFrame{QPACKMaxTableCapacity: settings.QPACKMaxTableCapacity, QPACKBlockedStreams: settings.QPACKBlockedStreams}
	buf = sf.Append(buf)
	if _, err := ctrl.Write(buf); err != nil {
		return nil, fmt.Errorf("h3: writing control stream settings: %w", err)
	}
	return &Session{conn: conn, headerLimit: DefaultHeaderListLimit, bodyLimit: DefaultBodyLimit}, nil
}

// PseudoHeaders mirrors h2.PseudoHeaders for the HTTP/3 request line.
type PseudoHeaders struct {
	Method    string
	Authority string
	Scheme    string
	Path      string
}

func (p PseudoHeaders) value(name string) string {
	switch name {
	case ":method":
		return p.Method
	case ":authority":
		return p.Authority
	case ":scheme":
		return p.Scheme
	case ":path":
		return p.Path
	default:
		return ""
	}
}

// RequestStream is one HTTP/3 request's bidirectional QUIC stream.
type RequestStream struct {
	stream      quic.Stream
	headerLimit int
	bodyLimit   int
}

// OpenRequest opens a new bidirectional stream and writes a HEADERS frame
// (pseudo-headers in pseudoOrder, then the profile's ordered headers) and
// then, when body is non-empty, the whole body as a single DATA frame
// (spec.md §4.3.3).
func (s *Session) OpenRequest(ctx context.Context, pseudoOrder []string, pseudo PseudoHeaders, hdrs *headers.List, body []byte) (*RequestStream, error) {
	stream, err := s.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("h3: opening request stream: %w", err)
	}
	var headerBlock bytes.Buffer
	enc := qpack.NewEncoder(&headerBlock)
	for _, name := range pseudoOrder {
		if err := enc.WriteField(qpack.HeaderField{Name: name, Value: pseudo.value(name)}); err != nil {
			return nil, err
		}
	}
	for _, p := range hdrs.Pairs() {
		if err := enc.WriteField(qpack.HeaderField{Name: lowerASCII(p.Name), Value: p.Value}); err != nil {
			return nil, err
		}
	}

	var wire []byte
	hf := &headersFrame{Length: uint64(headerBlock.Len())}
	wire = hf.Append(wire)
	wire = append(wire, headerBlock.Bytes()...)
	if _, err := stream.Write(wire); err != nil {
		return nil, fmt.Errorf("h3: writing headers frame: %w", err)
	}

	if len(body) > 0 {
		var dataWire []byte
		df := &dataFrame{Length: uint64(len(body))}
		dataWire = df.Append(dataWire)
		dataWire = append(dataWire, body...)
		if _, err := stream.Write(dataWire); err != nil {
			return nil, fmt.Errorf("h3: writing data frame: %w", err)
		}
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("h3: closing request stream: %w", err)
	}
	return &RequestStream{stream: stream, headerLimit: s.headerLimit, bodyLimit: s.bodyLimit}, nil
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Response is one request stream's accumulated result.
type Response struct {
	Status  string
	Headers *headers.List
	Body    []byte
}

// LimitExceededError marks a response whose decoded header list or body
// exceeded a configured ceiling.
type LimitExceededError struct{ Limit string }

func (e *LimitExceededError) Error() string { return "h3: limit exceeded: " + e.Limit }

// ReadResponse reads HEADERS and DATA frames off the request stream until
// the stream closes, decoding QPACK and accumulating the body.
func (rs *RequestStream) ReadResponse() (*Response, error) {
	p := &frameParser{r: rs.stream}
	resp := &Response{Headers: headers.New()}
	var body bytes.Buffer
	var fields []qpack.HeaderField

	for {
		f, err := p.ParseNext()
		if err != nil {
			if len(fields) > 0 || body.Len() > 0 {
				break
			}
			return nil, fmt.Errorf("h3: reading frame: %w", err)
		}
		switch fr := f.(type) {
		case *headersFrame:
			if fr.Length > uint64(rs.headerLimit) {
				return nil, &LimitExceededError{Limit: "header_list"}
			}
			buf := make([]byte, fr.Length)
			if _, err := fullRead(rs.stream, buf); err != nil {
				return nil, fmt.Errorf("h3: reading header block: %w", err)
			}
			decoded, err := qpack.NewDecoder(nil).DecodeFull(buf)
			if err != nil {
				return nil, fmt.Errorf("h3: decoding qpack: %w", err)
			}
			fields = decoded
		case *dataFrame:
			if uint64(body.Len())+fr.Length > uint64(rs.bodyLimit) {
				return nil, &LimitExceededError{Limit: "body"}
			}
			buf := make([]byte, fr.Length)
			if _, err := fullRead(rs.stream, buf); err != nil {
				return nil, fmt.Errorf("h3: reading data frame: %w", err)
			}
			body.Write(buf)
		case *goAwayFrame:
			return nil, fmt.Errorf("h3: peer sent GOAWAY for stream %d", fr.StreamID)
		}
	}

	for _, hf := range fields {
		if hf.Name == ":status" {
			resp.Status = hf.Value
			continue
		}
		resp.Headers.Add(hf.Name, hf.Value)
	}
	resp.Body = body.Bytes()
	return resp, nil
}

func fullRead(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

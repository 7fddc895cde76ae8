// Package h2 implements the HTTP/2 wire codec (spec.md §4.3.2) on top of
// golang.org/x/net/http2's low-level Framer and HPACK encoder/decoder,
// driving the profile-ordered SETTINGS/pseudo-header/flow-control
// fingerprint rather than Go's own negotiated defaults.
package h2

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/duskmantle/ghostwire/headers"
)

const preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

const (
	DefaultHeaderListLimit = 1 << 20
	DefaultBodyLimit       = 100 << 20
)

// Session owns one HTTP/2 connection's framer and HPACK state (spec.md
// §4.4.2 "session handle"). Headers are only ever written by one stream at
// a time per RFC 7540 §5.1.1's ordering rule, so the encoder is shared.
type Session struct {
	fr      *http2.Framer
	enc     *hpack.Encoder
	encBuf  *bytes.Buffer
	nextID  uint32
	headerLimit int
	bodyLimit   int
}

// PriorityFrame is a standalone PRIORITY frame Open writes right after the
// initial SETTINGS/WINDOW_UPDATE, before any request — Firefox sends a
// handful of these for fixed low stream IDs ahead of its first real
// request (spec.md §4.3.2 "Multiplexing" fingerprint surface).
type PriorityFrame struct {
	StreamID uint32
	http2.PriorityParam
}

// Open writes the connection preface, the client's profile-ordered
// SETTINGS frame, the initial connection-level WINDOW_UPDATE, and any
// standalone PRIORITY frames the profile declares (spec.md §4.3.2).
func Open(rw io.ReadWriter, settings []http2.Setting, connectionFlowDelta uint32, priorities []PriorityFrame) (*Session, error) {
	if _, err := io.WriteString(rw, preface); err != nil {
		return nil, fmt.Errorf("h2: writing preface: %w", err)
	}
	fr := http2.NewFramer(rw, rw)
	fr.ReadMetaHeaders = hpack.NewDecoder(4096, nil)
	if err := fr.WriteSettings(settings...); err != nil {
		return nil, fmt.Errorf("h2: writing settings: %w", err)
	}
	if connectionFlowDelta > 0 {
		if err := fr.WriteWindowUpdate(0, connectionFlowDelta); err != nil {
			return nil, fmt.Errorf("h2: writing window update: %w", err)
		}
	}
	for _, p := range priorities {
		if err := fr.WritePriority(p.StreamID, p.PriorityParam); err != nil {
			return nil, fmt.Errorf("h2: writing priority frame: %w", err)
		}
	}
	buf := &bytes.Buffer{}
	return &Session{
		fr:          fr,
		enc:         hpack.NewEncoder(buf),
		encBuf:      buf,
		nextID:      1,
		headerLimit: DefaultHeaderListLimit,
		bodyLimit:   DefaultBodyLimit,
	}, nil
}

// NextStreamID returns the next client-initiated stream ID (odd,
// increasing, per spec.md §4.3.2 "Multiplexing").
func (s *Session) NextStreamID() uint32 {
	id := s.nextID
	s.nextID += 2
	return id
}

// PseudoHeaders is the ordered set of pseudo-header values for one request.
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

// WriteRequest encodes pseudo-headers in pseudoOrder, then the profile's
// ordered normal headers lowercased (RFC 7540 §8.1.2), then the body across
// one or more DATA frames. end_stream is set on the last DATA frame or, if
// body is empty, on HEADERS — never on HEADERS when a body follows
// (spec.md §4.3.2).
func (s *Session) WriteRequest(streamID uint32, pseudoOrder []string, pseudo PseudoHeaders, hdrs *headers.List, body []byte) error {
	s.encBuf.Reset()
	for _, name := range pseudoOrder {
		if err := s.enc.WriteField(hpack.HeaderField{Name: name, Value: pseudo.value(name)}); err != nil {
			return err
		}
	}
	for _, p := range hdrs.Pairs() {
		if err := s.enc.WriteField(hpack.HeaderField{Name: lowerASCII(p.Name), Value: p.Value}); err != nil {
			return err
		}
	}

	endStream := len(body) == 0
	if err := s.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      streamID,
		BlockFragment: s.encBuf.Bytes(),
		EndHeaders:    true,
		EndStream:     endStream,
	}); err != nil {
		return fmt.Errorf("h2: writing headers: %w", err)
	}
	if endStream {
		return nil
	}
	return s.writeData(streamID, body)
}

func (s *Session) writeData(streamID uint32, body []byte) error {
	const maxFrame = 16384
	for len(body) > maxFrame {
		if err := s.fr.WriteData(streamID, false, body[:maxFrame]); err != nil {
			return fmt.Errorf("h2: writing data: %w", err)
		}
		body = body[maxFrame:]
	}
	if err := s.fr.WriteData(streamID, true, body); err != nil {
		return fmt.Errorf("h2: writing final data: %w", err)
	}
	return nil
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

// Response is one stream's accumulated result.
type Response struct {
	Status  string
	Headers *headers.List
	Body    []byte
}

// LimitExceededError marks a response whose decoded header list or body
// exceeded a configured ceiling (spec.md §4.3.2).
type LimitExceededError struct{ Limit string }

func (e *LimitExceededError) Error() string { return "h2: limit exceeded: " + e.Limit }

// ReadResponse reads frames for streamID until END_STREAM, decoding HPACK
// and accumulating DATA, honouring the header-list and body ceilings.
func (s *Session) ReadResponse(streamID uint32) (*Response, error) {
	resp := &Response{Headers: headers.New()}
	var body bytes.Buffer

	for {
		f, err := s.fr.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("h2: reading frame: %w", err)
		}
		switch fr := f.(type) {
		case *http2.MetaHeadersFrame:
			if fr.StreamID != streamID {
				continue
			}
			decodedLen := 0
			for _, hf := range fr.Fields {
				decodedLen += len(hf.Name) + len(hf.Value) + 32 // HPACK RFC 7541 §4.1 entry overhead
			}
			if decodedLen > s.headerLimit {
				return nil, &LimitExceededError{Limit: "header_list"}
			}
			for _, hf := range fr.Fields {
				if hf.Name == ":status" {
					resp.Status = hf.Value
					continue
				}
				resp.Headers.Add(hf.Name, hf.Value)
			}
			if fr.StreamEnded() {
				resp.Body = body.Bytes()
				return resp, nil
			}
		case *http2.DataFrame:
			if fr.StreamID != streamID {
				continue
			}
			if body.Len()+len(fr.Data()) > s.bodyLimit {
				return nil, &LimitExceededError{Limit: "body"}
			}
			body.Write(fr.Data())
			if fr.StreamEnded() {
				resp.Body = body.Bytes()
				return resp, nil
			}
		case *http2.GoAwayFrame:
			return nil, fmt.Errorf("h2: peer sent GOAWAY: %v", fr.ErrCode)
		case *http2.RSTStreamFrame:
			if fr.StreamID == streamID {
				return nil, fmt.Errorf("h2: stream reset: %v", fr.ErrCode)
			}
		}
	}
}

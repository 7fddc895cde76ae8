// Package h1 implements the HTTP/1.1 wire codec (spec.md §4.3.1): a request
// writer that preserves exact header order/casing, and an incremental
// response reader with bounded header and body sizes so a hostile or
// buggy server can't exhaust memory.
package h1

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duskmantle/ghostwire/compress"
	"github.com/duskmantle/ghostwire/headers"
)

const (
	DefaultHeaderBlockLimit = 64 << 10
	DefaultBodyLimit        = 100 << 20
	DefaultMaxChunkSize     = 10 << 20
)

// Limits bounds an h1 exchange (spec.md §4.3.1).
type Limits struct {
	HeaderBlock int
	Body        int
	MaxChunk    int
}

// DefaultLimits returns spec.md's default ceilings.
func DefaultLimits() Limits {
	return Limits{HeaderBlock: DefaultHeaderBlockLimit, Body: DefaultBodyLimit, MaxChunk: DefaultMaxChunkSize}
}

// Request is the wire-level shape the codec writes: a method, request
// target, and an ordered header list, plus an optional body.
type Request struct {
	Method  string
	Target  string // request-target, e.g. "/path?query"
	Headers *headers.List
	Body    io.Reader
}

// WriteRequest writes the request line, headers in list order with
// original casing, a blank line, then the body (spec.md §4.3.1).
func WriteRequest(w io.Writer, req *Request) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %s HTTP/1.1\r\n", req.Method, req.Target); err != nil {
		return err
	}
	for _, p := range req.Headers.Pairs() {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", p.Name, p.Value); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if req.Body != nil {
		if _, err := io.Copy(bw, req.Body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Response is the parsed result of ReadResponse.
type Response struct {
	StatusCode int
	Status     string
	Headers    *headers.List
	Body       []byte
	Close      bool // true if the connection must not be reused
}

// TruncatedError marks a response that ran out of bytes mid-parse, as
// opposed to one that was structurally invalid.
type TruncatedError struct{ Where string }

func (e *TruncatedError) Error() string { return "h1: truncated response: " + e.Where }

// MalformedError marks a structurally invalid response.
type MalformedError struct{ Reason string }

func (e *MalformedError) Error() string { return "h1: malformed response: " + e.Reason }

// LimitExceededError marks a response that exceeded a configured ceiling.
type LimitExceededError struct{ Limit string }

func (e *LimitExceededError) Error() string { return "h1: limit exceeded: " + e.Limit }

// ReadResponse implements the incremental parse algorithm of spec.md
// §4.3.1: status line + bounded header block, then a body framed by
// Content-Length, chunked encoding, or connection-close, decompressed
// according to Content-Encoding.
func ReadResponse(r *bufio.Reader, lim Limits) (*Response, error) {
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return nil, &TruncatedError{Where: "status line"}
	}
	statusLine = strings.TrimRight(statusLine, "\r\n")
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return nil, &MalformedError{Reason: "status line: " + statusLine}
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, &MalformedError{Reason: "status code: " + parts[1]}
	}
	httpVersion := parts[0]

	hdrs, headerBytes, err := readHeaderBlock(r, lim.HeaderBlock)
	if err != nil {
		return nil, err
	}

	resp := &Response{StatusCode: code, Status: statusLine, Headers: hdrs}
	_ = headerBytes

	connHdr, _ := hdrs.Get("Connection")
	connVal := strings.ToLower(connHdr)
	resp.Close = connVal == "close" || (httpVersion == "HTTP/1.0" && connVal != "keep-alive")

	body, err := readBody(r, hdrs, lim)
	if err != nil {
		return nil, err
	}
	encoding, _ := hdrs.Get("Content-Encoding")
	resp.Body, err = decodeBody(body, encoding, lim.Body)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func readHeaderBlock(r *bufio.Reader, limit int) (*headers.List, int, error) {
	if limit <= 0 {
		limit = DefaultHeaderBlockLimit
	}
	hdrs := headers.New()
	total := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, total, &TruncatedError{Where: "headers"}
		}
		total += len(line)
		if total > limit {
			return nil, total, &LimitExceededError{Limit: "header_block"}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, total, &MalformedError{Reason: "header line: " + line}
		}
		name := line[:idx]
		value := strings.TrimSpace(line[idx+1:])
		hdrs.Add(name, value)
	}
	return hdrs, total, nil
}

func readBody(r *bufio.Reader, hdrs *headers.List, lim Limits) ([]byte, error) {
	bodyLimit := lim.Body
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	maxChunk := lim.MaxChunk
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkSize
	}

	teHdr, _ := hdrs.Get("Transfer-Encoding")
	if te := strings.ToLower(teHdr); strings.Contains(te, "chunked") {
		return readChunked(r, maxChunk, bodyLimit)
	}
	if cl, ok := hdrs.Get("Content-Length"); ok && cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return nil, &MalformedError{Reason: "content-length: " + cl}
		}
		if n > bodyLimit {
			return nil, &LimitExceededError{Limit: "body"}
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, &TruncatedError{Where: "body"}
		}
		return buf, nil
	}
	// Connection: close framing — read until EOF, still bounded.
	return readBounded(r, bodyLimit)
}

func readChunked(r *bufio.Reader, maxChunk, bodyLimit int) ([]byte, error) {
	var out []byte
	for {
		sizeLine, err := r.ReadString('\n')
		if err != nil {
			return nil, &TruncatedError{Where: "chunk size"}
		}
		sizeLine = strings.TrimRight(strings.SplitN(sizeLine, ";", 2)[0], "\r\n")
		size, err := strconv.ParseInt(sizeLine, 16, 64)
		if err != nil || size < 0 {
			return nil, &MalformedError{Reason: "chunk size: " + sizeLine}
		}
		if int(size) > maxChunk {
			return nil, &LimitExceededError{Limit: "chunk"}
		}
		if size == 0 {
			// trailer section, terminated by a blank line
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return nil, &TruncatedError{Where: "chunk trailer"}
				}
				if strings.TrimRight(line, "\r\n") == "" {
					return out, nil
				}
			}
		}
		if len(out)+int(size) > bodyLimit {
			return nil, &LimitExceededError{Limit: "body"}
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, &TruncatedError{Where: "chunk data"}
		}
		out = append(out, chunk...)
		if _, err := r.Discard(2); err != nil { // trailing CRLF
			return nil, &TruncatedError{Where: "chunk terminator"}
		}
	}
}

func readBounded(r io.Reader, limit int) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: int64(limit) + 1}
	out, err := io.ReadAll(lr)
	if err != nil {
		return nil, &TruncatedError{Where: "body"}
	}
	if int64(len(out)) > int64(limit) {
		return nil, &LimitExceededError{Limit: "body"}
	}
	return out, nil
}

func decodeBody(body []byte, encoding string, limit int) ([]byte, error) {
	out, err := compress.Decode(body, encoding, limit)
	if err != nil {
		if _, ok := err.(*compress.LimitExceededError); ok {
			return nil, &LimitExceededError{Limit: "body"}
		}
		return nil, &MalformedError{Reason: err.Error()}
	}
	return out, nil
}


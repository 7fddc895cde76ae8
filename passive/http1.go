package passive

import (
	"bufio"
	"bytes"
	"strings"
)

const (
	http1MaxWindow  = 8 << 10
	http1MaxHeaders = 100
)

// HTTP1Fingerprint is the passively-observed HTTP/1.1 request signature
// (spec.md §4.6 "HTTP/1.1 extractor"): the request line plus header
// *names* in wire order, casing preserved.
type HTTP1Fingerprint struct {
	Method      string
	Target      string
	Version     string
	HeaderNames []string
}

// ExtractHTTP1 parses a request-line then headers up to CRLFCRLF, capping
// the parse window at 8 KiB and the header count at 100 (spec.md §4.6).
func ExtractHTTP1(payload []byte) (*HTTP1Fingerprint, error) {
	if len(payload) > MaxPacketBytes {
		return nil, &ResourceExhausted{Limit: "packet exceeds MaxPacketBytes"}
	}
	window := payload
	if len(window) > http1MaxWindow {
		window = window[:http1MaxWindow]
	}
	if !bytes.Contains(window, []byte("\r\n\r\n")) {
		return nil, &Truncated{Where: "request headers (no CRLFCRLF within window)"}
	}

	r := bufio.NewReader(bytes.NewReader(window))
	requestLine, err := r.ReadString('\n')
	if err != nil {
		return nil, &Truncated{Where: "request line"}
	}
	requestLine = strings.TrimRight(requestLine, "\r\n")
	parts := strings.SplitN(requestLine, " ", 3)
	if len(parts) != 3 {
		return nil, &Malformed{Reason: "request line: " + requestLine}
	}
	fp := &HTTP1Fingerprint{Method: parts[0], Target: parts[1], Version: parts[2]}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, &Truncated{Where: "headers"}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if len(fp.HeaderNames) >= http1MaxHeaders {
			return nil, &Malformed{Reason: "too many headers"}
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, &Malformed{Reason: "header line: " + line}
		}
		fp.HeaderNames = append(fp.HeaderNames, line[:idx])
	}
	return fp, nil
}

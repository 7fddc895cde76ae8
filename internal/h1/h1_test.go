package h1

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/duskmantle/ghostwire/headers"
)

func TestWriteRequestPreservesHeaderOrder(t *testing.T) {
	req := &Request{
		Method: "GET",
		Target: "/index.html",
		Headers: headers.New(
			headers.Pair{Name: "Host", Value: "example.com"},
			headers.Pair{Name: "Accept-Language", Value: "en-US"},
			headers.Pair{Name: "User-Agent", Value: "ghostwire/1"},
		),
	}
	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got := buf.String()
	wantPrefix := "GET /index.html HTTP/1.1\r\nHost: example.com\r\nAccept-Language: en-US\r\nUser-Agent: ghostwire/1\r\n\r\n"
	if got != wantPrefix {
		t.Errorf("wire bytes =\n%q\nwant\n%q", got, wantPrefix)
	}
}

func TestReadResponseContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nConnection: keep-alive\r\n\r\nhello"
	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), DefaultLimits())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.StatusCode != 200 || string(resp.Body) != "hello" {
		t.Errorf("got status=%d body=%q", resp.StatusCode, resp.Body)
	}
	if resp.Close {
		t.Error("Close should be false for keep-alive")
	}
}

func TestReadResponseChunked(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), DefaultLimits())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(resp.Body) != "Wikipedia" {
		t.Errorf("body = %q, want Wikipedia", resp.Body)
	}
}

func TestReadResponseConnectionClose(t *testing.T) {
	raw := "HTTP/1.0 200 OK\r\n\r\nbody-to-eof"
	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), DefaultLimits())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if !resp.Close {
		t.Error("HTTP/1.0 without keep-alive should close")
	}
	if string(resp.Body) != "body-to-eof" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestReadResponseOversizedChunkRejected(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
	lim := DefaultLimits()
	lim.MaxChunk = 2
	raw += "a\r\nabcdefghij\r\n0\r\n\r\n"
	_, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), lim)
	if _, ok := err.(*LimitExceededError); !ok {
		t.Errorf("err = %v, want *LimitExceededError", err)
	}
}

func TestReadResponseTruncatedHeaders(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n"
	_, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)), DefaultLimits())
	if _, ok := err.(*TruncatedError); !ok {
		t.Errorf("err = %v, want *TruncatedError", err)
	}
}

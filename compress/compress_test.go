package compress

import (
	"bytes"
	"compress/gzip"
	"testing"
)

func TestDecodeGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("hello, ghostwire"))
	zw.Close()

	out, err := Decode(buf.Bytes(), "gzip", DefaultLimit)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(out) != "hello, ghostwire" {
		t.Errorf("Decode = %q", out)
	}
}

func TestDecodeIdentityPassesThrough(t *testing.T) {
	out, err := Decode([]byte("plain"), "", DefaultLimit)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(out) != "plain" {
		t.Errorf("Decode = %q", out)
	}
}

func TestDecodeEnforcesLimit(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(bytes.Repeat([]byte("x"), 1000))
	zw.Close()

	_, err := Decode(buf.Bytes(), "gzip", 10)
	if _, ok := err.(*LimitExceededError); !ok {
		t.Errorf("err = %v, want *LimitExceededError", err)
	}
}

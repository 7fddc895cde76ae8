// Package compress wraps the response-body decoders spec.md §4.8 names:
// gzip, deflate, brotli and zstd, each bounded by the same post-
// decompression ceiling as the HTTP body cap.
package compress

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// DefaultLimit matches the default HTTP body cap (spec.md §4.3 "Common
// constraints").
const DefaultLimit = 100 << 20

// LimitExceededError marks a decompressed body that exceeded its cap.
type LimitExceededError struct{ Limit int }

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("compress: decompressed body exceeds %d byte cap", e.Limit)
}

// Decode decompresses body according to encoding ("gzip", "deflate", "br",
// "zstd", or "identity"/""), bounded by limit bytes.
func Decode(body []byte, encoding string, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	r := newReaderFrom(body, strings.ToLower(strings.TrimSpace(encoding)))
	if r == nil {
		return body, nil
	}
	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}
	limited := &io.LimitedReader{R: r, N: int64(limit) + 1}
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if int64(len(out)) > int64(limit) {
		return nil, &LimitExceededError{Limit: limit}
	}
	return out, nil
}

func newReaderFrom(body []byte, encoding string) io.Reader {
	br := bytes.NewReader(body)
	switch encoding {
	case "gzip":
		zr, err := gzip.NewReader(br)
		if err != nil {
			return errReader{err}
		}
		return zr
	case "deflate":
		return flate.NewReader(br)
	case "br":
		return brotli.NewReader(br)
	case "zstd":
		zr, err := zstd.NewReader(br)
		if err != nil {
			return errReader{err}
		}
		return zr
	default:
		return nil
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

package h2

import (
	"bytes"
	"testing"

	"golang.org/x/net/http2"

	"github.com/duskmantle/ghostwire/headers"
)

type loopback struct {
	toServer   bytes.Buffer
	fromServer bytes.Buffer
}

func (l *loopback) Write(p []byte) (int, error) { return l.toServer.Write(p) }
func (l *loopback) Read(p []byte) (int, error)  { return l.fromServer.Read(p) }

func TestOpenWritesPrefaceSettingsAndWindowUpdate(t *testing.T) {
	lb := &loopback{}
	_, err := Open(lb, []http2.Setting{{ID: http2.SettingEnablePush, Val: 0}}, 15663105, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	written := lb.toServer.Bytes()
	if !bytes.HasPrefix(written, []byte(preface)) {
		t.Fatalf("connection preface missing from wire bytes")
	}
	fr := http2.NewFramer(nil, bytes.NewReader(written[len(preface):]))
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("reading settings frame: %v", err)
	}
	sf, ok := f.(*http2.SettingsFrame)
	if !ok || sf.NumSettings() != 1 || sf.Setting(0) != (http2.Setting{ID: http2.SettingEnablePush, Val: 0}) {
		t.Fatalf("first frame = %v, want SETTINGS [ENABLE_PUSH=0]", f)
	}
	f, err = fr.ReadFrame()
	if err != nil {
		t.Fatalf("reading window update frame: %v", err)
	}
	wu, ok := f.(*http2.WindowUpdateFrame)
	if !ok || wu.StreamID != 0 || wu.Increment != 15663105 {
		t.Errorf("second frame = %v, want WINDOW_UPDATE stream 0 increment 15663105", f)
	}
}

func TestOpenWritesStandalonePriorityFrames(t *testing.T) {
	lb := &loopback{}
	priorities := []PriorityFrame{
		{StreamID: 3, PriorityParam: http2.PriorityParam{StreamDep: 0, Weight: 201, Exclusive: false}},
		{StreamID: 5, PriorityParam: http2.PriorityParam{StreamDep: 0, Weight: 101, Exclusive: false}},
	}
	_, err := Open(lb, nil, 0, priorities)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	written := lb.toServer.Bytes()
	if !bytes.HasPrefix(written, []byte(preface)) {
		t.Fatalf("connection preface missing from wire bytes")
	}
	fr := http2.NewFramer(nil, bytes.NewReader(written[len(preface):]))
	if _, err := fr.ReadFrame(); err != nil { // SETTINGS frame
		t.Fatalf("reading settings frame: %v", err)
	}
	var seen []uint32
	for i := 0; i < len(priorities); i++ {
		f, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("reading priority frame %d: %v", i, err)
		}
		pf, ok := f.(*http2.PriorityFrame)
		if !ok {
			t.Fatalf("frame %d = %T, want *http2.PriorityFrame", i, f)
		}
		seen = append(seen, pf.StreamID)
	}
	if len(seen) != 2 || seen[0] != 3 || seen[1] != 5 {
		t.Errorf("priority frame stream IDs = %v, want [3 5]", seen)
	}
}

func TestNextStreamIDIsOddIncreasing(t *testing.T) {
	lb := &loopback{}
	sess, err := Open(lb, nil, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first := sess.NextStreamID()
	second := sess.NextStreamID()
	if first != 1 || second != 3 {
		t.Errorf("stream IDs = %d, %d; want 1, 3", first, second)
	}
}

func TestWriteRequestEmptyBodySetsEndStreamOnHeaders(t *testing.T) {
	lb := &loopback{}
	sess, err := Open(lb, nil, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	streamID := sess.NextStreamID()
	before := lb.toServer.Len()
	hdrs := headers.New(headers.Pair{Name: "Accept", Value: "*/*"})
	pseudo := PseudoHeaders{Method: "GET", Authority: "example.com", Scheme: "https", Path: "/"}
	order := []string{":method", ":authority", ":scheme", ":path"}
	if err := sess.WriteRequest(streamID, order, pseudo, hdrs, nil); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	fr := http2.NewFramer(nil, bytes.NewReader(lb.toServer.Bytes()[before:]))
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("reading headers frame: %v", err)
	}
	if hf, ok := f.(*http2.HeadersFrame); !ok || !hf.StreamEnded() {
		t.Errorf("frame = %v, want HEADERS with END_STREAM", f)
	}
	if f, err := fr.ReadFrame(); err == nil {
		t.Errorf("unexpected frame %v after HEADERS for an empty-body request", f)
	}
}

func TestWriteRequestWithBodySplitsAcrossDataFrames(t *testing.T) {
	lb := &loopback{}
	sess, err := Open(lb, nil, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	streamID := sess.NextStreamID()
	before := lb.toServer.Len()
	hdrs := headers.New()
	pseudo := PseudoHeaders{Method: "POST", Authority: "example.com", Scheme: "https", Path: "/upload"}
	order := []string{":method", ":authority", ":scheme", ":path"}
	body := bytes.Repeat([]byte("x"), 20000)
	if err := sess.WriteRequest(streamID, order, pseudo, hdrs, body); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	fr := http2.NewFramer(nil, bytes.NewReader(lb.toServer.Bytes()[before:]))
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("reading headers frame: %v", err)
	}
	if hf, ok := f.(*http2.HeadersFrame); !ok || hf.StreamEnded() {
		t.Fatalf("first frame = %v, want HEADERS without END_STREAM", f)
	}
	var sizes []int
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("reading data frame: %v", err)
		}
		df, ok := f.(*http2.DataFrame)
		if !ok {
			t.Fatalf("frame = %T, want *http2.DataFrame", f)
		}
		sizes = append(sizes, len(df.Data()))
		if df.StreamEnded() {
			break
		}
	}
	if len(sizes) != 2 || sizes[0] != 16384 || sizes[1] != 20000-16384 {
		t.Errorf("DATA frame sizes = %v, want [16384 3616]", sizes)
	}
}

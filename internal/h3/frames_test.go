package h3

import (
	"bytes"
	"testing"
)

func TestSettingsFrameRoundTrip(t *testing.T) {
	sf := &settingsFrame{QPACKMaxTableCapacity: 16384, QPACKBlockedStreams: 100}
	wire := sf.Append(nil)

	parsed, err := (&frameParser{r: bytes.NewReader(wire)}).ParseNext()
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	got, ok := parsed.(*settingsFrame)
	if !ok {
		t.Fatalf("parsed = %T, want *settingsFrame", parsed)
	}
	if got.QPACKMaxTableCapacity != 16384 || got.QPACKBlockedStreams != 100 {
		t.Errorf("got %+v", got)
	}
}

func TestDataFrameRoundTrip(t *testing.T) {
	df := &dataFrame{Length: 42}
	wire := df.Append(nil)
	parsed, err := (&frameParser{r: bytes.NewReader(wire)}).ParseNext()
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	got, ok := parsed.(*dataFrame)
	if !ok || got.Length != 42 {
		t.Fatalf("parsed = %+v, want dataFrame{Length: 42}", parsed)
	}
}

func TestGoAwayFrameRoundTrip(t *testing.T) {
	gf := &goAwayFrame{StreamID: 7}
	wire := gf.Append(nil)
	parsed, err := (&frameParser{r: bytes.NewReader(wire)}).ParseNext()
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	got, ok := parsed.(*goAwayFrame)
	if !ok || got.StreamID != 7 {
		t.Fatalf("parsed = %+v, want goAwayFrame{StreamID: 7}", parsed)
	}
}

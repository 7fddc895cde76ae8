package h3

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// frameType is the frame type of an HTTP/3 frame (RFC 9114 §7.2).
type frameType uint64

const (
	frameTypeData     frameType = 0x0
	frameTypeHeaders  frameType = 0x1
	frameTypeSettings frameType = 0x4
	frameTypeGoAway   frameType = 0x7
)

type frame any

// frameParser reads the HTTP/3 frame stream on one stream, adapted from the
// standard control/request stream parser to carry only the fields ghostwire
// needs (spec.md §4.3.3).
type frameParser struct {
	r io.Reader
}

func (p *frameParser) ParseNext() (frame, error) {
	qr := quicvarint.NewReader(p.r)
	for {
		t, err := quicvarint.Read(qr)
		if err != nil {
			return nil, err
		}
		l, err := quicvarint.Read(qr)
		if err != nil {
			return nil, err
		}
		switch frameType(t) {
		case frameTypeData:
			return &dataFrame{Length: l}, nil
		case frameTypeHeaders:
			return &headersFrame{Length: l}, nil
		case frameTypeSettings:
			return parseSettingsFrame(p.r, l)
		case frameTypeGoAway:
			return parseGoAwayFrame(qr, l)
		}
		if _, err := io.CopyN(io.Discard, qr, int64(l)); err != nil {
			return nil, err
		}
	}
}

type dataFrame struct {
	Length uint64
}

func (f *dataFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, uint64(frameTypeData))
	return quicvarint.Append(b, f.Length)
}

type headersFrame struct {
	Length uint64
}

func (f *headersFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, uint64(frameTypeHeaders))
	return quicvarint.Append(b, f.Length)
}

// QPACK-related settings IDs (RFC 9204 §7.2).
const (
	settingQPACKMaxTableCapacity = 0x1
	settingQPACKBlockedStreams   = 0x7
)

// settingsFrame carries the fingerprint-relevant subset of HTTP/3 SETTINGS:
// the QPACK dynamic-table limits a profile advertises (spec.md §4.3.3).
type settingsFrame struct {
	QPACKMaxTableCapacity uint64
	QPACKBlockedStreams   uint64
	Other                 map[uint64]uint64
}

func parseSettingsFrame(r io.Reader, l uint64) (*settingsFrame, error) {
	if l > 8*(1<<10) {
		return nil, fmt.Errorf("h3: unexpected size for SETTINGS frame: %d", l)
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	out := &settingsFrame{}
	b := bytes.NewReader(buf)
	for b.Len() > 0 {
		id, err := quicvarint.Read(b)
		if err != nil {
			return nil, err
		}
		val, err := quicvarint.Read(b)
		if err != nil {
			return nil, err
		}
		switch id {
		case settingQPACKMaxTableCapacity:
			out.QPACKMaxTableCapacity = val
		case settingQPACKBlockedStreams:
			out.QPACKBlockedStreams = val
		default:
			if out.Other == nil {
				out.Other = make(map[uint64]uint64)
			}
			out.Other[id] = val
		}
	}
	return out, nil
}

func (f *settingsFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, uint64(frameTypeSettings))
	var body []byte
	body = quicvarint.Append(body, settingQPACKMaxTableCapacity)
	body = quicvarint.Append(body, f.QPACKMaxTableCapacity)
	body = quicvarint.Append(body, settingQPACKBlockedStreams)
	body = quicvarint.Append(body, f.QPACKBlockedStreams)
	for id, val := range f.Other {
		body = quicvarint.Append(body, id)
		body = quicvarint.Append(body, val)
	}
	b = quicvarint.Append(b, uint64(len(body)))
	return append(b, body...)
}

type goAwayFrame struct {
	StreamID uint64
}

func parseGoAwayFrame(r io.ByteReader, l uint64) (*goAwayFrame, error) {
	cbr := &countingByteReader{ByteReader: r}
	id, err := quicvarint.Read(cbr)
	if err != nil {
		return nil, err
	}
	if cbr.Read != int(l) {
		return nil, errors.New("h3: GOAWAY frame: inconsistent length")
	}
	return &goAwayFrame{StreamID: id}, nil
}

func (f *goAwayFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, uint64(frameTypeGoAway))
	b = quicvarint.Append(b, uint64(quicvarint.Len(f.StreamID)))
	return quicvarint.Append(b, f.StreamID)
}

type countingByteReader struct {
	io.ByteReader
	Read int
}

func (r *countingByteReader) ReadByte() (byte, error) {
	b, err := r.ByteReader.ReadByte()
	if err == nil {
		r.Read++
	}
	return b, err
}

package passive

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	pcapMagicLE       = 0xa1b2c3d4
	pcapMagicBE       = 0xd4c3b2a1
	pcapGlobalHdrLen  = 24
	pcapRecordHdrLen  = 16
	pcapLinkTypeNone  = 0  // BSD loopback / "raw" (no link-layer header)
	pcapLinkTypeEther = 1
)

// ErrSessionDone is returned by Session.Next once the capture is exhausted,
// and by every call after the one that reported *ResourceExhausted for
// reaching MaxPacketsPerFile.
var ErrSessionDone = errors.New("passive: session exhausted")

// Session threads a byte cursor across repeated Next calls so a capture
// file's multiple flows can be walked one packet at a time (SPEC_FULL.md §3
// "passive.Pcap-free raw-stream Session type"), reusing the same safety
// floor (MaxPacketBytes, MaxPacketsPerFile) the standalone extractors
// enforce on a single buffer.
type Session struct {
	r         io.Reader
	byteOrder binary.ByteOrder
	linkType  uint32
	count     int
	done      bool
}

// NewSession reads a libpcap global header off r and returns a Session
// ready to iterate its packet records. It accepts either byte order the
// classic pcap format allows (magic number 0xa1b2c3d4 little-endian or its
// byte-swapped twin) and rejects anything else as Malformed.
func NewSession(r io.Reader) (*Session, error) {
	hdr := make([]byte, pcapGlobalHdrLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, &Truncated{Where: "pcap global header"}
	}

	var order binary.ByteOrder
	switch binary.LittleEndian.Uint32(hdr[0:4]) {
	case pcapMagicLE:
		order = binary.LittleEndian
	case pcapMagicBE:
		order = binary.BigEndian
	default:
		return nil, &Malformed{Reason: "not a pcap capture (bad magic number)"}
	}

	return &Session{
		r:         r,
		byteOrder: order,
		linkType:  order.Uint32(hdr[20:24]),
	}, nil
}

// LinkType reports the capture's link-layer type (e.g. Ethernet), so a
// caller knows whether to strip a link header before calling ParseIP.
func (s *Session) LinkType() uint32 { return s.linkType }

// Next reads and returns the next packet's raw bytes, enforcing both halves
// of the safety floor declared in errors.go: a single packet over
// MaxPacketBytes, or the file's Nth-plus-first packet once MaxPacketsPerFile
// records have already been returned, both surface as *ResourceExhausted
// rather than being silently truncated or read into an unbounded buffer.
func (s *Session) Next() ([]byte, error) {
	if s.done {
		return nil, ErrSessionDone
	}
	if s.count >= MaxPacketsPerFile {
		s.done = true
		return nil, &ResourceExhausted{Limit: "capture exceeds MaxPacketsPerFile"}
	}

	rec := make([]byte, pcapRecordHdrLen)
	if _, err := io.ReadFull(s.r, rec); err != nil {
		s.done = true
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrSessionDone
		}
		return nil, &Truncated{Where: "pcap record header"}
	}

	capturedLen := s.byteOrder.Uint32(rec[8:12])
	if capturedLen > MaxPacketBytes {
		s.done = true
		return nil, &ResourceExhausted{Limit: "packet exceeds MaxPacketBytes"}
	}

	body := make([]byte, capturedLen)
	if _, err := io.ReadFull(s.r, body); err != nil {
		s.done = true
		return nil, &Truncated{Where: "pcap record body"}
	}

	s.count++
	return body, nil
}

// stripEthernet drops a 14-byte Ethernet II header (6 dst + 6 src + 2
// ethertype) when the capture's link type calls for it, so callers can feed
// Next's output straight into ParseIP regardless of link layer.
func stripEthernet(frame []byte) ([]byte, error) {
	const etherHdrLen = 14
	if len(frame) < etherHdrLen {
		return nil, &Truncated{Where: "ethernet header"}
	}
	return frame[etherHdrLen:], nil
}

// NextIP reads the next packet via Next and strips its link-layer header
// (Ethernet or none) before returning the IP-layer bytes, ready for ParseIP.
func (s *Session) NextIP() ([]byte, error) {
	frame, err := s.Next()
	if err != nil {
		return nil, err
	}
	switch s.linkType {
	case pcapLinkTypeEther:
		return stripEthernet(frame)
	default:
		return frame, nil
	}
}

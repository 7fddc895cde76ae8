package passive

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestExtractTCPParsesOptionsInOrder(t *testing.T) {
	seg := make([]byte, 32)
	seg[12] = 8 << 4 // data offset = 8 words = 32 bytes
	binary.BigEndian.PutUint16(seg[14:16], 65535)
	opts := seg[20:32]
	opts[0] = optKindMSS
	opts[1] = 4
	binary.BigEndian.PutUint16(opts[2:4], 1460)
	opts[4] = optKindNOP
	opts[5] = optKindWindowScale
	opts[6] = 3
	opts[7] = 7
	opts[8] = optKindSACKPermit
	opts[9] = 2

	fp, err := ExtractTCP(64, seg)
	if err != nil {
		t.Fatalf("ExtractTCP: %v", err)
	}
	if fp.TTL != 64 || fp.Window != 65535 || !fp.HasMSS || fp.MSS != 1460 {
		t.Errorf("fp = %+v", fp)
	}
	want := []int{optKindMSS, optKindNOP, optKindWindowScale, optKindSACKPermit, optKindEnd}
	if len(fp.OptionOrder) != len(want) {
		t.Fatalf("OptionOrder = %v, want %v", fp.OptionOrder, want)
	}
	for i, k := range want {
		if fp.OptionOrder[i] != k {
			t.Errorf("OptionOrder[%d] = %d, want %d", i, fp.OptionOrder[i], k)
		}
	}
}

func TestExtractTCPRejectsBadDataOffset(t *testing.T) {
	seg := make([]byte, 20)
	seg[12] = 3 << 4 // below the minimum of 5
	_, err := ExtractTCP(64, seg)
	if _, ok := err.(*Malformed); !ok {
		t.Errorf("err = %v, want *Malformed", err)
	}
}

func TestExtractTCPTruncatedHeader(t *testing.T) {
	_, err := ExtractTCP(64, make([]byte, 10))
	if _, ok := err.(*Truncated); !ok {
		t.Errorf("err = %v, want *Truncated", err)
	}
}

func TestExtractHTTP1ParsesHeaderNames(t *testing.T) {
	raw := []byte("GET /path HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n")
	fp, err := ExtractHTTP1(raw)
	if err != nil {
		t.Fatalf("ExtractHTTP1: %v", err)
	}
	if fp.Method != "GET" || fp.Target != "/path" {
		t.Errorf("fp = %+v", fp)
	}
	want := []string{"Host", "Accept"}
	for i, n := range want {
		if fp.HeaderNames[i] != n {
			t.Errorf("HeaderNames[%d] = %q, want %q", i, fp.HeaderNames[i], n)
		}
	}
}

func TestExtractHTTP1TruncatedWithoutBlankLine(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n")
	_, err := ExtractHTTP1(raw)
	if _, ok := err.(*Truncated); !ok {
		t.Errorf("err = %v, want *Truncated", err)
	}
}

func TestExtractHTTP2FindsSettingsFrame(t *testing.T) {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], 0x4) // SETTINGS_INITIAL_WINDOW_SIZE id... arbitrary
	binary.BigEndian.PutUint32(body[2:6], 6291456)

	frame := make([]byte, http2FrameHeaderLen+len(body))
	frame[0], frame[1], frame[2] = 0, 0, byte(len(body))
	frame[3] = http2FrameTypeSettings
	copy(frame[http2FrameHeaderLen:], body)

	fp, err := ExtractHTTP2(frame)
	if err != nil {
		t.Fatalf("ExtractHTTP2: %v", err)
	}
	if len(fp.Settings) != 1 || fp.Settings[0].Value != 6291456 {
		t.Errorf("fp = %+v", fp)
	}
}

func TestParseIPv4RejectsBadIHL(t *testing.T) {
	packet := make([]byte, 20)
	packet[0] = 0x40 | 3 // version 4, IHL 3 (below minimum of 5)
	_, _, err := ParseIP(packet)
	if _, ok := err.(*Malformed); !ok {
		t.Errorf("err = %v, want *Malformed", err)
	}
}

func TestParseIPv4ExtractsTTLAndTCPPayload(t *testing.T) {
	packet := make([]byte, 24)
	packet[0] = 0x45 // version 4, IHL 5 (20-byte header)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(packet)))
	packet[8] = 64 // TTL
	packet[9] = ipProtoTCP
	copy(packet[20:], []byte{1, 2, 3, 4})

	fp, payload, err := ParseIP(packet)
	if err != nil {
		t.Fatalf("ParseIP: %v", err)
	}
	if fp.Version != 4 || fp.TTL != 64 || fp.Protocol != ipProtoTCP {
		t.Errorf("fp = %+v", fp)
	}
	if !bytes.Equal(payload, []byte{1, 2, 3, 4}) {
		t.Errorf("payload = %v, want [1 2 3 4]", payload)
	}
}

func TestParseIPRejectsOversizedPacket(t *testing.T) {
	packet := make([]byte, MaxPacketBytes+1)
	packet[0] = 0x45
	_, _, err := ParseIP(packet)
	if _, ok := err.(*ResourceExhausted); !ok {
		t.Errorf("err = %v, want *ResourceExhausted", err)
	}
}

func buildPcapFile(packets [][]byte) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, pcapGlobalHdrLen)
	binary.LittleEndian.PutUint32(hdr[0:4], pcapMagicLE)
	binary.LittleEndian.PutUint32(hdr[20:24], pcapLinkTypeNone)
	buf.Write(hdr)
	for _, p := range packets {
		rec := make([]byte, pcapRecordHdrLen)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(len(p)))
		binary.LittleEndian.PutUint32(rec[12:16], uint32(len(p)))
		buf.Write(rec)
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestSessionNextWalksPackets(t *testing.T) {
	raw := buildPcapFile([][]byte{{1, 2, 3}, {4, 5}})
	sess, err := NewSession(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	first, err := sess.Next()
	if err != nil || !bytes.Equal(first, []byte{1, 2, 3}) {
		t.Fatalf("first = %v, %v", first, err)
	}
	second, err := sess.Next()
	if err != nil || !bytes.Equal(second, []byte{4, 5}) {
		t.Fatalf("second = %v, %v", second, err)
	}
	if _, err := sess.Next(); err != ErrSessionDone {
		t.Errorf("err = %v, want ErrSessionDone", err)
	}
}

func TestSessionRejectsBadMagic(t *testing.T) {
	_, err := NewSession(bytes.NewReader(make([]byte, pcapGlobalHdrLen)))
	if _, ok := err.(*Malformed); !ok {
		t.Errorf("err = %v, want *Malformed", err)
	}
}

package fingerprint

import "testing"

func chromeLikeSig() ClientHelloSignature {
	return ClientHelloSignature{
		Version:    0x0303,
		Ciphers:    []uint16{0x0a0a, 0x1301, 0x1302, 0x1303, 0xc02b, 0xc02f},
		Extensions: []uint16{0x2a2a, 0x0000, 0x0017, 0x000b, 0x0023},
		Curves:     []uint16{0x001d, 0x0017, 0x0018},
		ECFormats:  []uint8{0},
		SNI:        "example.com",
		ALPN:       []string{"h2", "http/1.1"},
	}
}

func TestJA3DeterministicAndGREASEAware(t *testing.T) {
	sig := chromeLikeSig()
	raw, hash := JA3(sig)
	if raw == "" || len(hash) != 32 {
		t.Fatalf("JA3 raw=%q hash=%q", raw, hash)
	}
	rawAgain, hashAgain := JA3(sig)
	if raw != rawAgain || hash != hashAgain {
		t.Error("JA3 is not deterministic for identical input")
	}
}

func TestJA3NormalisedStripsGREASE(t *testing.T) {
	withGrease := chromeLikeSig()
	withoutGrease := ClientHelloSignature{
		Version:    withGrease.Version,
		Ciphers:    []uint16{0x1301, 0x1302, 0x1303, 0xc02b, 0xc02f},
		Extensions: []uint16{0x0000, 0x0017, 0x000b, 0x0023},
		Curves:     withGrease.Curves,
		ECFormats:  withGrease.ECFormats,
	}
	_, hashA := JA3Normalised(withGrease)
	_, hashB := JA3Normalised(withoutGrease)
	if hashA != hashB {
		t.Errorf("normalised JA3 should ignore GREASE entries: %s != %s", hashA, hashB)
	}
}

func TestJA4FormatShape(t *testing.T) {
	sig := chromeLikeSig()
	ja4 := JA4(sig)
	if len(ja4) < 10 {
		t.Fatalf("JA4 output too short: %q", ja4)
	}
	if ja4[:2] != "12" {
		t.Errorf("JA4 version prefix = %q, want 12 for TLS 1.2", ja4[:2])
	}
	if ja4[2:3] != "d" {
		t.Errorf("JA4 SNI flag = %q, want d (SNI present)", ja4[2:3])
	}
}

func TestJA4HDistinguishesCookiePresence(t *testing.T) {
	base := HTTPRequestSignature{
		Method:      "GET",
		HTTPVersion: "11",
		HeaderNames: []string{"Host", "Accept", "User-Agent"},
	}
	withCookie := base
	withCookie.HasCookie = true

	a := JA4H(base)
	b := JA4H(withCookie)
	if a == b {
		t.Error("JA4H should differ when cookie presence differs")
	}
}

func TestJA4TJoinsFieldsInOrder(t *testing.T) {
	got := JA4T(TCPSignature{WindowSize: 65535, OptionKinds: []int{2, 1, 3, 1, 1, 4, 8}, MSS: 1460, WindowScale: 7})
	want := "65535_2-1-3-1-1-4-8_1460_7"
	if got != want {
		t.Errorf("JA4T = %q, want %q", got, want)
	}
}

func TestDatabaseExactMatch(t *testing.T) {
	db := NewDatabase()
	sig := chromeLikeSig()
	db.Add("chrome_120", sig)

	m, ok := db.Lookup(sig)
	if !ok {
		t.Fatal("expected a match for an indexed signature")
	}
	if m.ProfileID != "chrome_120" || m.Confidence != 0.95 {
		t.Errorf("match = %+v, want {chrome_120 0.95}", m)
	}
}

func TestDatabaseFuzzyMatchBelowThresholdMisses(t *testing.T) {
	db := NewDatabase()
	db.Add("chrome_120", chromeLikeSig())

	unrelated := ClientHelloSignature{
		Version:    0x0301,
		Ciphers:    []uint16{0x0035},
		Extensions: []uint16{0x0005},
		Curves:     []uint16{0x0019},
		ECFormats:  []uint8{1},
	}
	_, ok := db.Lookup(unrelated)
	if ok {
		t.Error("expected no match for a wildly dissimilar signature")
	}
}

func TestDatabaseFuzzyMatchNearIdenticalHits(t *testing.T) {
	db := NewDatabase()
	sig := chromeLikeSig()
	db.Add("chrome_120", sig)

	near := sig
	near.ECFormats = []uint8{1} // flip one low-weight component
	m, ok := db.Lookup(near)
	if !ok {
		t.Fatal("expected a fuzzy match for a near-identical signature")
	}
	if m.ProfileID != "chrome_120" {
		t.Errorf("ProfileID = %q, want chrome_120", m.ProfileID)
	}
	if m.Confidence < fuzzyThreshold {
		t.Errorf("Confidence = %f, want >= %f", m.Confidence, fuzzyThreshold)
	}
}

package profile

import "testing"

func TestGetKnownProfile(t *testing.T) {
	p, err := Get("chrome_120")
	if err != nil {
		t.Fatalf("Get(chrome_120): %v", err)
	}
	if p.BrowserFamily != Chrome {
		t.Errorf("BrowserFamily = %q, want chrome", p.BrowserFamily)
	}
	if p.TCP.TTL != 128 {
		t.Errorf("TTL = %d, want 128 for a Windows profile", p.TCP.TTL)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	_, err := Get("does-not-exist")
	if err == nil {
		t.Fatal("expected NotFoundError, got nil")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("err = %T, want *NotFoundError", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p, err := Get("firefox_120")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	clone := p.Clone()
	clone.Headers.Defaults["User-Agent"] = "mutated"
	again, _ := Get("firefox_120")
	if again.Headers.Defaults["User-Agent"] == "mutated" {
		t.Error("mutating a clone's headers leaked into the catalogue")
	}
}

func TestAllContainsEveryFamily(t *testing.T) {
	ids := All()
	seen := map[Family]bool{}
	for _, id := range ids {
		p, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		seen[p.BrowserFamily] = true
	}
	for _, want := range []Family{Chrome, Edge, Firefox, Safari, OkHTTP} {
		if !seen[want] {
			t.Errorf("catalogue missing a profile for family %q", want)
		}
	}
}

func TestGenerateUnifiedResyncsTCP(t *testing.T) {
	p, err := GenerateUnified("chrome_120", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0.0.0")
	if err != nil {
		t.Fatalf("GenerateUnified: %v", err)
	}
	if p.TCP.TTL != 64 {
		t.Errorf("TTL = %d, want 64 after switching UA to a macOS string", p.TCP.TTL)
	}
	if p.Headers.Defaults["User-Agent"] != p.UserAgent {
		t.Error("header default User-Agent wasn't resynced with the override")
	}
}

func TestRandomByFamilyFiltersCorrectly(t *testing.T) {
	p, err := RandomByFamily(Safari)
	if err != nil {
		t.Fatalf("RandomByFamily(Safari): %v", err)
	}
	if p.BrowserFamily != Safari {
		t.Errorf("BrowserFamily = %q, want safari", p.BrowserFamily)
	}
}

func TestRandomByFamilyEmptySet(t *testing.T) {
	_, err := RandomByFamily(Family("not-a-real-family"))
	if _, ok := err.(*EmptyError); !ok {
		t.Errorf("err = %T, want *EmptyError", err)
	}
}

func TestTLSExtensionSequenceStable(t *testing.T) {
	a, _ := Get("chrome_120")
	b, _ := Get("chrome_124")
	seqA := a.TLS.ExtensionTypeSequence()
	seqB := b.TLS.ExtensionTypeSequence()
	if len(seqA) != len(seqB) {
		t.Fatalf("extension sequence length differs between chrome versions sharing a TLS template: %d vs %d", len(seqA), len(seqB))
	}
	for i := range seqA {
		if seqA[i] != seqB[i] {
			t.Errorf("extension[%d] = %#x, want %#x (reused TLS template)", i, seqB[i], seqA[i])
		}
	}
}

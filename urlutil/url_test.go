package urlutil

import "testing"

func TestParseDefaultPorts(t *testing.T) {
	u, err := Parse("https://example.com/path?q=1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Port != 443 {
		t.Errorf("Port = %d, want 443", u.Port)
	}
	if u.RequestTarget() != "/path?q=1" {
		t.Errorf("RequestTarget = %q", u.RequestTarget())
	}
}

func TestParseIPv6Literal(t *testing.T) {
	u, err := Parse("http://[::1]:8080/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Host != "::1" {
		t.Errorf("Host = %q, want ::1", u.Host)
	}
	if u.Authority() != "[::1]:8080" {
		t.Errorf("Authority = %q", u.Authority())
	}
}

func TestResolveReferenceAbsolutePath(t *testing.T) {
	base, _ := Parse("https://example.com/a/b?x=1")
	resolved, err := ResolveReference(base, "/c")
	if err != nil {
		t.Fatalf("ResolveReference: %v", err)
	}
	if resolved.Path != "/c" || resolved.Host != "example.com" {
		t.Errorf("resolved = %+v", resolved)
	}
}

func TestResolveReferenceProtocolRelative(t *testing.T) {
	base, _ := Parse("https://example.com/a")
	resolved, err := ResolveReference(base, "//other.com/x")
	if err != nil {
		t.Fatalf("ResolveReference: %v", err)
	}
	if resolved.Host != "other.com" || resolved.Scheme != "https" {
		t.Errorf("resolved = %+v", resolved)
	}
}

func TestResolveReferenceRelativePath(t *testing.T) {
	base, _ := Parse("https://example.com/a/b")
	resolved, err := ResolveReference(base, "c")
	if err != nil {
		t.Fatalf("ResolveReference: %v", err)
	}
	if resolved.Path != "/a/c" {
		t.Errorf("Path = %q, want /a/c", resolved.Path)
	}
}

func TestParseRejectsMissingHost(t *testing.T) {
	_, err := Parse("https:///path")
	if err == nil {
		t.Fatal("expected a ParseError for a missing host")
	}
}

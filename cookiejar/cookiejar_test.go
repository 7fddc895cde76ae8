package cookiejar

import "testing"

func TestSetAndHeaderRoundTrip(t *testing.T) {
	j := New()
	j.SetFromHeader("example.com", []string{"session=abc123; Path=/; HttpOnly"})
	got := j.Header("example.com", "/", false)
	if got != "session=abc123" {
		t.Errorf("Header = %q, want session=abc123", got)
	}
}

func TestDomainSuffixRejection(t *testing.T) {
	j := New()
	j.SetFromHeader("example.com", []string{"a=1; Domain=evil.com"})
	got := j.Header("example.com", "/", false)
	if got != "" {
		t.Errorf("Header = %q, want empty (cross-domain cookie must be rejected)", got)
	}
}

func TestSecureCookieOmittedOverPlainHTTP(t *testing.T) {
	j := New()
	j.SetFromHeader("example.com", []string{"s=1; Secure"})
	if got := j.Header("example.com", "/", false); got != "" {
		t.Errorf("Header over http = %q, want empty for a Secure cookie", got)
	}
	if got := j.Header("example.com", "/", true); got != "s=1" {
		t.Errorf("Header over https = %q, want s=1", got)
	}
}

func TestMaxPerDomainEvictsEarliestExpiry(t *testing.T) {
	j := New()
	j.MaxPerDomain = 2
	j.SetFromHeader("example.com", []string{
		"a=1; Max-Age=10",
		"b=1; Max-Age=100",
		"c=1; Max-Age=1000",
	})
	got := j.Header("example.com", "/", false)
	if got == "" {
		t.Fatal("expected some cookies to remain")
	}
	if containsCookieName(got, "a") {
		t.Error("shortest-lived cookie should have been evicted first")
	}
}

func TestHeaderOrdersByPathLengthThenCreationTime(t *testing.T) {
	j := New()
	j.SetFromHeader("example.com", []string{"first=1; Path=/"})
	j.SetFromHeader("example.com", []string{"second=2; Path=/a/b"})
	j.SetFromHeader("example.com", []string{"third=3; Path=/a"})

	got := j.Header("example.com", "/a/b", false)
	want := "second=2; third=3; first=1"
	if got != want {
		t.Errorf("Header = %q, want %q (longest path first, then creation order)", got, want)
	}
}

func containsCookieName(header, name string) bool {
	for i := 0; i+len(name) <= len(header); i++ {
		if header[i:i+len(name)] == name && (i+len(name) == len(header) || header[i+len(name)] == '=') {
			return true
		}
	}
	return false
}

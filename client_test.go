package ghostwire

import (
	"context"
	"testing"

	"github.com/duskmantle/ghostwire/headers"
	"github.com/duskmantle/ghostwire/profile"
)

func TestMergeHeadersPreservesProfileOrderAndOverridesByName(t *testing.T) {
	p, err := profile.Get("chrome_120")
	if err != nil {
		t.Fatalf("profile.Get: %v", err)
	}
	c := New(Config{Profile: &p})

	reqHdrs := headers.New(headers.Pair{Name: "user-agent", Value: "custom-agent/1.0"})
	merged := c.mergeHeaders(reqHdrs)

	if v, ok := merged.Get("user-agent"); !ok || v != "custom-agent/1.0" {
		t.Errorf("user-agent = %q, %v, want override applied", v, ok)
	}
	names := merged.Names()
	chUAIdx, uaIdx := -1, -1
	for i, n := range names {
		switch n {
		case "sec-ch-ua":
			chUAIdx = i
		case "User-Agent":
			uaIdx = i
		}
	}
	if chUAIdx == -1 || uaIdx == -1 || chUAIdx > uaIdx {
		t.Errorf("merged header order = %v, want sec-ch-ua before user-agent (profile order preserved)", names)
	}
}

func TestIsRedirectRecognisesRedirectStatusesAndLocation(t *testing.T) {
	resp := &Response{StatusCode: 302, Headers: headers.New(headers.Pair{Name: "Location", Value: "/next"})}
	loc, ok := isRedirect(resp)
	if !ok || loc != "/next" {
		t.Errorf("isRedirect = %q, %v, want \"/next\", true", loc, ok)
	}

	notRedirect := &Response{StatusCode: 200}
	if _, ok := isRedirect(notRedirect); ok {
		t.Error("isRedirect(200) = true, want false")
	}

	noLocation := &Response{StatusCode: 301}
	if _, ok := isRedirect(noLocation); ok {
		t.Error("isRedirect(301 without Location) = true, want false")
	}
}

func TestDoDetectsRedirectCycle(t *testing.T) {
	c := New(Config{})
	visited := map[string]bool{"http://example.com/a": true}
	_, err := c.do(context.Background(), &Request{Method: "GET", URL: "http://example.com/a", Headers: headers.New()}, visited, nil, 0)
	if _, ok := err.(*RedirectCycleError); !ok {
		t.Errorf("err = %v, want *RedirectCycleError", err)
	}
}

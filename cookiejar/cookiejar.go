// Package cookiejar implements the bounded, thread-safe cookie store
// spec.md §4.8 describes: Set-Cookie parsing with the standard attributes,
// domain-suffix rejection, and eviction by earliest expiry once the jar's
// size bounds are exceeded.
package cookiejar

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxTotal    = 3000
	DefaultMaxPerDomain = 50
)

// Cookie is one stored cookie (spec.md §3 "Cookie").
type Cookie struct {
	Name      string
	Value     string
	Domain    string
	Path      string
	Expires   time.Time // zero value means session cookie (no Expires/Max-Age)
	Secure    bool
	HttpOnly  bool
	SameSite  string
	CreatedAt time.Time // when this cookie was first stored (RFC 6265 §5.3), for Header's ordering
}

func (c *Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// Jar is a thread-safe cookie store keyed by each cookie's domain (its
// Domain attribute, or the request host when it has none); keys are not
// reduced to the registered domain (eTLD+1).
type Jar struct {
	mu          sync.Mutex
	byDomain    map[string][]*Cookie
	MaxTotal    int
	MaxPerDomain int
}

// New builds a jar with spec.md's default bounds (3000 total, 50/domain).
func New() *Jar {
	return &Jar{
		byDomain:     make(map[string][]*Cookie),
		MaxTotal:     DefaultMaxTotal,
		MaxPerDomain: DefaultMaxPerDomain,
	}
}

// SetFromHeader parses every Set-Cookie header value received for
// requestHost and stores the ones whose Domain attribute (if any) is a
// suffix of requestHost (spec.md §4.5 step 7, §4.8).
func (j *Jar) SetFromHeader(requestHost string, setCookieValues []string) {
	for _, raw := range setCookieValues {
		c, domain, ok := parseSetCookie(raw, requestHost)
		if !ok {
			continue
		}
		j.store(domain, c)
	}
}

func parseSetCookie(raw, requestHost string) (*Cookie, string, bool) {
	header := http.Header{}
	header.Add("Set-Cookie", raw)
	resp := http.Response{Header: header}
	parsed := resp.Cookies()
	if len(parsed) == 0 {
		return nil, "", false
	}
	hc := parsed[0]

	domain := requestHost
	if hc.Domain != "" {
		d := strings.TrimPrefix(strings.ToLower(hc.Domain), ".")
		if !isDomainSuffix(requestHost, d) {
			return nil, "", false
		}
		domain = d
	}

	path := hc.Path
	if path == "" {
		path = "/"
	}

	var expires time.Time
	switch {
	case hc.MaxAge > 0:
		expires = time.Now().Add(time.Duration(hc.MaxAge) * time.Second)
	case hc.MaxAge < 0:
		expires = time.Unix(0, 0) // delete immediately
	case !hc.Expires.IsZero():
		expires = hc.Expires
	}

	return &Cookie{
		Name:      hc.Name,
		Value:     hc.Value,
		Domain:    domain,
		Path:      path,
		Expires:   expires,
		Secure:    hc.Secure,
		HttpOnly:  hc.HttpOnly,
		SameSite:  sameSiteString(hc.SameSite),
		CreatedAt: time.Now(),
	}, domain, true
}

func sameSiteString(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}

// isDomainSuffix reports whether host is domain or a subdomain of domain.
func isDomainSuffix(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

func (j *Jar) store(domain string, c *Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	if c.expired(now) {
		j.removeLocked(domain, c.Name, c.Path)
		return
	}

	existing := j.byDomain[domain]
	for i, e := range existing {
		if e.Name == c.Name && e.Path == c.Path {
			c.CreatedAt = e.CreatedAt // RFC 6265 §5.3: updating a cookie keeps its original creation time
			existing[i] = c
			j.byDomain[domain] = existing
			return
		}
	}
	j.byDomain[domain] = append(existing, c)
	j.enforceBoundsLocked(domain)
}

func (j *Jar) removeLocked(domain, name, path string) {
	existing := j.byDomain[domain]
	kept := existing[:0]
	for _, e := range existing {
		if e.Name == name && e.Path == path {
			continue
		}
		kept = append(kept, e)
	}
	j.byDomain[domain] = kept
}

func (j *Jar) enforceBoundsLocked(domain string) {
	max := j.MaxPerDomain
	if max <= 0 {
		max = DefaultMaxPerDomain
	}
	j.evictOldestLocked(domain, max)
	j.enforceTotalLocked()
}

func (j *Jar) evictOldestLocked(domain string, max int) {
	cookies := j.byDomain[domain]
	for len(cookies) > max {
		oldestIdx := earliestExpiryIndex(cookies)
		cookies = append(cookies[:oldestIdx], cookies[oldestIdx+1:]...)
	}
	j.byDomain[domain] = cookies
}

func (j *Jar) enforceTotalLocked() {
	maxTotal := j.MaxTotal
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotal
	}
	for j.totalLocked() > maxTotal {
		domain, idx := j.globalEarliestExpiryLocked()
		if domain == "" {
			return
		}
		cookies := j.byDomain[domain]
		j.byDomain[domain] = append(cookies[:idx], cookies[idx+1:]...)
	}
}

func (j *Jar) totalLocked() int {
	n := 0
	for _, cs := range j.byDomain {
		n += len(cs)
	}
	return n
}

func (j *Jar) globalEarliestExpiryLocked() (string, int) {
	bestDomain := ""
	bestIdx := -1
	var bestExpiry time.Time
	first := true
	for domain, cs := range j.byDomain {
		idx := earliestExpiryIndex(cs)
		if idx < 0 {
			continue
		}
		exp := cs[idx].Expires
		if first || (exp.IsZero() && !bestExpiry.IsZero()) || (!exp.IsZero() && !bestExpiry.IsZero() && exp.Before(bestExpiry)) {
			bestDomain, bestIdx, bestExpiry, first = domain, idx, exp, false
		}
	}
	return bestDomain, bestIdx
}

func earliestExpiryIndex(cookies []*Cookie) int {
	if len(cookies) == 0 {
		return -1
	}
	best := 0
	for i, c := range cookies {
		if cookies[best].Expires.IsZero() {
			continue
		}
		if c.Expires.IsZero() || c.Expires.Before(cookies[best].Expires) {
			best = i
		}
	}
	return best
}

// Header builds the Cookie request header value for (host, path, secure),
// matching by domain suffix and path prefix, ordered by path length
// descending then creation time ascending per RFC 6265 §5.4 (spec.md §3,
// §4.5 step 2) — the wire order of the Cookie header is itself
// fingerprinting-observable, so an arbitrary (map-iteration) order is a
// fidelity defect, not just a cosmetic one.
func (j *Jar) Header(host, path string, secure bool) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	var matched []*Cookie
	for domain, cookies := range j.byDomain {
		if !isDomainSuffix(host, domain) {
			continue
		}
		for _, c := range cookies {
			if c.expired(now) {
				continue
			}
			if c.Secure && !secure {
				continue
			}
			if !strings.HasPrefix(path, c.Path) && c.Path != "/" {
				continue
			}
			matched = append(matched, c)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if len(matched[i].Path) != len(matched[j].Path) {
			return len(matched[i].Path) > len(matched[j].Path)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	parts := make([]string, len(matched))
	for i, c := range matched {
		parts[i] = fmt.Sprintf("%s=%s", c.Name, c.Value)
	}
	return strings.Join(parts, "; ")
}

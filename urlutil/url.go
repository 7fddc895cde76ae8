// Package urlutil parses and resolves request URLs per spec.md §4.8:
// scheme://[user:pass@]host[:port][/path][?query][#fragment], with IPv6
// literal hosts and RFC 3986 §5.3 relative resolution for redirects.
package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL is the parsed, normalised request target.
type URL struct {
	Scheme   string
	User     string
	Password string
	Host     string // bracket-free; IPv6 literals have brackets stripped
	Port     int
	Path     string
	Query    string
	Fragment string
}

var defaultPorts = map[string]int{"http": 80, "https": 443}

// ParseError reports a malformed URL, naming the offending raw input.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string { return fmt.Sprintf("urlutil: %s: %q", e.Reason, e.Raw) }

// Parse parses raw into a URL, applying the scheme's default port when none
// is given (spec.md §4.8).
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Reason: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ParseError{Raw: raw, Reason: "missing scheme or host"}
	}
	scheme := strings.ToLower(u.Scheme)

	host := u.Hostname()
	port := 0
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &ParseError{Raw: raw, Reason: "invalid port"}
		}
		port = n
	} else if dp, ok := defaultPorts[scheme]; ok {
		port = dp
	}

	password, _ := u.User.Password()
	return &URL{
		Scheme:   scheme,
		User:     u.User.Username(),
		Password: password,
		Host:     host,
		Port:     port,
		Path:     u.EscapedPath(),
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}, nil
}

// String renders the URL back to its wire form.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(u.User)
		if u.Password != "" {
			b.WriteByte(':')
			b.WriteString(u.Password)
		}
		b.WriteByte('@')
	}
	b.WriteString(hostForWire(u.Host))
	if dp, ok := defaultPorts[u.Scheme]; !ok || dp != u.Port {
		fmt.Fprintf(&b, ":%d", u.Port)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	b.WriteString(path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

func hostForWire(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// RequestTarget returns the path+query the HTTP/1.x request line uses.
func (u *URL) RequestTarget() string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Query != "" {
		return path + "?" + u.Query
	}
	return path
}

// Authority returns the HTTP/2+ :authority pseudo-header value.
func (u *URL) Authority() string {
	host := hostForWire(u.Host)
	if dp, ok := defaultPorts[u.Scheme]; ok && dp == u.Port {
		return host
	}
	return fmt.Sprintf("%s:%d", host, u.Port)
}

// ResolveReference resolves ref against base per RFC 3986 §5.3, handling
// absolute URLs, protocol-relative "//host/path", absolute-path "/path",
// and relative paths (spec.md §4.5 step 7).
func ResolveReference(base *URL, ref string) (*URL, error) {
	baseURL, err := url.Parse(base.String())
	if err != nil {
		return nil, &ParseError{Raw: base.String(), Reason: err.Error()}
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, &ParseError{Raw: ref, Reason: err.Error()}
	}
	resolved := baseURL.ResolveReference(refURL)
	return Parse(resolved.String())
}

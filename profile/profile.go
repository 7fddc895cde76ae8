// Package profile is the canonical catalogue of browser/OS fingerprints
// (spec.md C1). The catalogue is data, not code: a handful of
// ClientHelloSpec templates are reused across related browser versions,
// diverging only where the browser's TLS surface actually changed
// (spec.md §4.1 "Key design decision").
package profile

import (
	"fmt"
	"strings"

	"github.com/duskmantle/ghostwire/tlsfp"
)

// Family identifies a browser engine/vendor.
type Family string

const (
	Chrome  Family = "chrome"
	Edge    Family = "edge"
	Firefox Family = "firefox"
	Safari  Family = "safari"
	OkHTTP  Family = "okhttp"
)

// OS identifies an operating system family.
type OS string

const (
	Windows OS = "windows"
	MacOS   OS = "macos"
	Linux   OS = "linux"
	IOS     OS = "ios"
	Android OS = "android"
)

// Profile is the immutable record identifying one browser/OS fingerprint
// (spec.md §3 "Profile"). Profiles are cloned into each Request; callers
// must not mutate a Profile obtained from the catalogue in place.
type Profile struct {
	ID                  string
	BrowserFamily       Family
	BrowserMajorVersion int
	OSFamily            OS
	OSMajorVersion      int
	IsMobile            bool
	UserAgent           string

	TCP     TCP
	TLS     *tlsfp.Spec
	HTTP2   HTTP2
	HTTP3   HTTP3
	Headers HeaderProfile
}

// Clone returns a deep-enough copy for safe per-request mutation (UA
// rewriting, TCP re-derivation). TLS specs are treated as immutable value
// objects shared by reference, matching spec.md §3's lifetime note that
// profiles are immutable values cloned into each Request.
func (p Profile) Clone() Profile {
	c := p
	c.TCP = p.TCP.Clone()
	c.Headers = p.Headers.clone()
	return c
}

// NotFoundError is returned by Get for an unknown profile id (spec.md §4.1
// Failure).
type NotFoundError struct{ ID string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("profile: unknown profile id %q", e.ID) }

// EmptyError is returned by the random_* family when no profile matches the
// requested constraint (spec.md §4.1 Failure).
type EmptyError struct{ Constraint string }

func (e *EmptyError) Error() string { return fmt.Sprintf("profile: no profiles match %s", e.Constraint) }

// Get performs an O(1) lookup against the lazily initialised catalogue
// (spec.md §4.1).
func Get(id string) (Profile, error) {
	p, ok := catalogue()[id]
	if !ok {
		return Profile{}, &NotFoundError{ID: id}
	}
	return p.Clone(), nil
}

// All returns every profile id in the catalogue, for enumeration.
func All() []string {
	cat := catalogue()
	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}
	return ids
}

// deriveOSFromUA maps a User-Agent string to an OS family and TTL/window
// pair, per spec.md §4.1's generate_unified mapping table.
func deriveOSFromUA(ua string) (OS, TCP) {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return Windows, windowsTCP()
	case strings.Contains(ua, "Macintosh") || strings.Contains(ua, "Mac OS X"):
		return MacOS, macTCP()
	case strings.Contains(ua, "Linux") || strings.Contains(ua, "X11"):
		return Linux, linuxTCP()
	default:
		return Linux, linuxTCP()
	}
}

// SyncTCPFromUA re-derives TCP from the profile's own user_agent, restoring
// property P1 (Profile self-consistency) after any hand-edit of UserAgent
// that didn't go through GenerateUnified.
func SyncTCPFromUA(p Profile) Profile {
	_, tcp := deriveOSFromUA(p.UserAgent)
	out := p.Clone()
	out.TCP = tcp
	return out
}

// GenerateUnified returns a profile whose user_agent is replaced by
// uaOverride and whose tcp is re-derived from the new UA (spec.md §4.1
// "generate_unified").
func GenerateUnified(profileID, uaOverride string) (Profile, error) {
	base, err := Get(profileID)
	if err != nil {
		return Profile{}, err
	}
	base.UserAgent = uaOverride
	_, tcp := deriveOSFromUA(uaOverride)
	base.TCP = tcp
	if _, ok := base.Headers.Defaults["User-Agent"]; ok {
		base.Headers.Defaults["User-Agent"] = uaOverride
	}
	return base, nil
}

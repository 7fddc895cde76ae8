package profile

import "github.com/duskmantle/ghostwire/headers"

// HeaderProfile is the canonical, ordered header list a profile presents by
// default, plus the casing and GREASE rules that keep it consistent with
// the rest of the fingerprint (spec.md §3 "header_profile").
type HeaderProfile struct {
	// Order lists header names in the exact casing and order the browser
	// sends them (spec.md §3 HeaderList invariant).
	Order []string
	// Defaults gives the value for headers the profile fills in
	// automatically (UA, Accept, Sec-Ch-Ua, ...). Request-supplied values
	// override these by name (spec.md §4.5 step 1).
	Defaults map[string]string
	// GreaseClientHints: when true, the profile's Sec-Ch-Ua-* headers
	// include a GREASE brand entry (e.g. "Not_A Brand";v="8"), matching
	// Chromium's client-hint GREASE policy.
	GreaseClientHints bool
}

// Build renders the profile's canonical header list with its default
// values, in its declared order.
func (h HeaderProfile) Build() *headers.List {
	l := headers.New()
	for _, name := range h.Order {
		if v, ok := h.Defaults[name]; ok {
			l.Add(name, v)
		}
	}
	return l
}

func (h HeaderProfile) clone() HeaderProfile {
	c := h
	c.Order = append([]string(nil), h.Order...)
	c.Defaults = make(map[string]string, len(h.Defaults))
	for k, v := range h.Defaults {
		c.Defaults[k] = v
	}
	return c
}

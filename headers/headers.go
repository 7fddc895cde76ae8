// Package headers implements the ordered, case-preserving header list shared
// by profiles, requests, responses and the wire codecs.
package headers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// Pair is one header entry on the wire. Name keeps whatever casing the
// profile or caller gave it; HTTP/2 and HTTP/3 codecs lowercase on the wire
// but the List itself never mutates Name in place.
type Pair struct {
	Name  string
	Value string
}

// List is an ordered, duplicate-preserving header list. Order is semantically
// significant: two Lists with the same pairs in different order are distinct
// fingerprints (spec.md §3, HeaderList invariant).
type List struct {
	pairs []Pair
}

// New builds a List from name/value pairs in the given order.
func New(pairs ...Pair) *List {
	l := &List{pairs: make([]Pair, 0, len(pairs))}
	for _, p := range pairs {
		l.pairs = append(l.pairs, p)
	}
	return l
}

// Add appends a header, preserving any existing entries with the same name.
func (l *List) Add(name, value string) *List {
	l.pairs = append(l.pairs, Pair{Name: name, Value: value})
	return l
}

// Set replaces the value of the first header matching name case-insensitively,
// keeping that header's position and original casing. If no match exists the
// header is appended with the casing given here.
func (l *List) Set(name, value string) *List {
	for i := range l.pairs {
		if strings.EqualFold(l.pairs[i].Name, name) {
			l.pairs[i].Value = value
			return l
		}
	}
	return l.Add(name, value)
}

// Get returns the value of the first header matching name case-insensitively.
func (l *List) Get(name string) (string, bool) {
	for _, p := range l.pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns every value for headers matching name, in wire order.
func (l *List) Values(name string) []string {
	var out []string
	for _, p := range l.pairs {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p.Value)
		}
	}
	return out
}

// Del removes every header matching name case-insensitively.
func (l *List) Del(name string) *List {
	kept := l.pairs[:0:0]
	for _, p := range l.pairs {
		if !strings.EqualFold(p.Name, name) {
			kept = append(kept, p)
		}
	}
	l.pairs = kept
	return l
}

// Has reports whether a header with the given name is present.
func (l *List) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Pairs returns the underlying ordered pairs. Callers must not mutate the
// returned slice's backing array via index assignment across goroutines;
// treat it as read-only.
func (l *List) Pairs() []Pair {
	return l.pairs
}

// Names returns header names in wire order, including duplicates.
func (l *List) Names() []string {
	out := make([]string, len(l.pairs))
	for i, p := range l.pairs {
		out[i] = p.Name
	}
	return out
}

// Canonical reconstructs the conventional Title-Case wire spelling of a
// header name (e.g. "content-type" -> "Content-Type"), segment by segment
// around hyphens. HTTP/2 and HTTP/3 deliver header names lowercased on the
// wire (RFC 9113 §8.2.1); this recovers the HTTP/1.1-style presentation so a
// Response's headers read consistently regardless of which protocol served
// it. It never mutates a List in place — wire-observed HTTP/1.1 names must
// keep their exact captured casing for fingerprinting.
func Canonical(name string) string {
	segments := strings.Split(name, "-")
	for i, seg := range segments {
		segments[i] = titleCaser.String(seg)
	}
	return strings.Join(segments, "-")
}

// Clone returns a deep copy so callers can merge without aliasing a shared
// profile's header list.
func (l *List) Clone() *List {
	c := &List{pairs: make([]Pair, len(l.pairs))}
	copy(c.pairs, l.pairs)
	return c
}

// Len reports the number of header pairs, including duplicates.
func (l *List) Len() int {
	return len(l.pairs)
}

// MergeOverride merges other into l: headers already present in l (matched
// case-insensitively) have their value replaced in place, preserving l's
// order; headers only present in other are appended in other's order. This
// implements the orchestrator's "request overrides profile, profile order
// wins" merge rule (spec.md §4.5 step 1).
func (l *List) MergeOverride(other *List) *List {
	merged := l.Clone()
	for _, p := range other.pairs {
		if merged.Has(p.Name) {
			merged.Set(p.Name, p.Value)
		} else {
			merged.Add(p.Name, p.Value)
		}
	}
	return merged
}

// ReorderLike returns a new List containing l's pairs reordered so that any
// name appearing in order comes first (in that order), followed by the
// remaining pairs in their original relative order. Used by the HTTP/2 and
// HTTP/3 codecs to move pseudo-headers to the front without otherwise
// rearranging header order (spec.md §4.3 "Common constraints").
func (l *List) ReorderLike(order []string) *List {
	out := &List{pairs: make([]Pair, 0, len(l.pairs))}
	used := make([]bool, len(l.pairs))
	for _, name := range order {
		for i, p := range l.pairs {
			if used[i] {
				continue
			}
			if strings.EqualFold(p.Name, name) {
				out.pairs = append(out.pairs, p)
				used[i] = true
				break
			}
		}
	}
	for i, p := range l.pairs {
		if !used[i] {
			out.pairs = append(out.pairs, p)
		}
	}
	return out
}

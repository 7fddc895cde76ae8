package profile

import (
	"crypto/rand"
	"math/big"
)

// Random draws uniformly from the full catalogue (spec.md §4.1 "random").
func Random() (Profile, error) {
	return randomFrom(All())
}

// RandomByFamily draws uniformly from profiles matching family, returning
// EmptyError if none match.
func RandomByFamily(family Family) (Profile, error) {
	return randomFrom(idsWhere(func(p Profile) bool { return p.BrowserFamily == family }))
}

// RandomByOS draws uniformly from profiles whose OSFamily is os. The
// User-Agent string is not inspected, so a mobile profile whose UA names no
// OS (okhttp_4_12) is still drawn when its OSFamily matches.
func RandomByOS(os OS) (Profile, error) {
	return randomFrom(idsWhere(func(p Profile) bool { return p.OSFamily == os }))
}

func idsWhere(match func(Profile) bool) []string {
	cat := catalogue()
	var ids []string
	for id, p := range cat {
		if match(p) {
			ids = append(ids, id)
		}
	}
	return ids
}

func randomFrom(ids []string) (Profile, error) {
	if len(ids) == 0 {
		return Profile{}, &EmptyError{Constraint: "requested subset"}
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(ids))))
	if err != nil {
		return Profile{}, err
	}
	return Get(ids[n.Int64()])
}

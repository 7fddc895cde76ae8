package fingerprint

import "sort"

// Match is one candidate result from Database.Lookup.
type Match struct {
	ProfileID  string
	Confidence float64
}

// entry is one indexed profile's canonical ClientHello signature, kept
// alongside its normalised-JA3 hash for O(1) exact lookup.
type entry struct {
	profileID string
	normHash  string
	sig       ClientHelloSignature
}

// Database is the in-memory index spec.md §4.7 "Matching / database"
// describes: an exact normalised-JA3 map plus Jaccard-similarity fuzzy
// matching over the underlying component lists.
type Database struct {
	byHash  map[string][]entry
	entries []entry
}

// NewDatabase builds an empty database; callers populate it via Add, e.g.
// once per profile in the catalogue at startup.
func NewDatabase() *Database {
	return &Database{byHash: make(map[string][]entry)}
}

// Add indexes profileID's canonical ClientHello signature.
func (d *Database) Add(profileID string, sig ClientHelloSignature) {
	_, hash := JA3Normalised(sig)
	e := entry{profileID: profileID, normHash: hash, sig: sig}
	d.byHash[hash] = append(d.byHash[hash], e)
	d.entries = append(d.entries, e)
}

// Jaccard component weights (spec.md §4.7 "Matching / database").
const (
	weightVersion    = 0.10
	weightCiphers    = 0.40
	weightExtensions = 0.30
	weightCurves     = 0.15
	weightECFormats  = 0.05

	fuzzyThreshold = 0.80
)

// Lookup returns the highest-confidence match for sig: an exact
// normalised-JA3 match yields confidence 0.95; otherwise the best fuzzy
// (Jaccard) match at or above threshold 0.80 is returned. ok is false if
// neither applies.
func (d *Database) Lookup(sig ClientHelloSignature) (Match, bool) {
	_, hash := JA3Normalised(sig)
	if candidates, found := d.byHash[hash]; found && len(candidates) > 0 {
		return Match{ProfileID: candidates[0].profileID, Confidence: 0.95}, true
	}

	best := Match{}
	bestScore := 0.0
	for _, e := range d.entries {
		score := weightedJaccard(sig, e.sig)
		if score > bestScore {
			bestScore = score
			best = Match{ProfileID: e.profileID, Confidence: score}
		}
	}
	if bestScore >= fuzzyThreshold {
		return best, true
	}
	return Match{}, false
}

func weightedJaccard(a, b ClientHelloSignature) float64 {
	versionScore := 0.0
	if a.Version == b.Version {
		versionScore = 1.0
	}
	return versionScore*weightVersion +
		jaccardUint16(a.Ciphers, b.Ciphers)*weightCiphers +
		jaccardUint16(a.Extensions, b.Extensions)*weightExtensions +
		jaccardUint16(a.Curves, b.Curves)*weightCurves +
		jaccardUint8(a.ECFormats, b.ECFormats)*weightECFormats
}

func jaccardUint16(a, b []uint16) float64 {
	setA := toSetU16(a)
	setB := toSetU16(b)
	return jaccard(setA, setB)
}

func jaccardUint8(a, b []uint8) float64 {
	setA := make(map[int]struct{}, len(a))
	for _, v := range a {
		setA[int(v)] = struct{}{}
	}
	setB := make(map[int]struct{}, len(b))
	for _, v := range b {
		setB[int(v)] = struct{}{}
	}
	return jaccard(setA, setB)
}

func toSetU16(vals []uint16) map[int]struct{} {
	set := make(map[int]struct{}, len(vals))
	for _, v := range vals {
		if isGREASE(v) {
			continue
		}
		set[int(v)] = struct{}{}
	}
	return set
}

func jaccard(a, b map[int]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// TopMatches returns every candidate at or above threshold, sorted by
// descending confidence; useful for diagnostics beyond the single best
// match Lookup returns.
func (d *Database) TopMatches(sig ClientHelloSignature, threshold float64) []Match {
	var out []Match
	_, hash := JA3Normalised(sig)
	for _, e := range d.byHash[hash] {
		out = append(out, Match{ProfileID: e.profileID, Confidence: 0.95})
	}
	for _, e := range d.entries {
		score := weightedJaccard(sig, e.sig)
		if score >= threshold {
			out = append(out, Match{ProfileID: e.profileID, Confidence: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

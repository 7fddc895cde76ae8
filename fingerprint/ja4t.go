package fingerprint

import (
	"strconv"
	"strings"
)

// TCPSignature is the field-level view of a TCP SYN/SYN-ACK JA4T is
// computed over (spec.md §4.7 "JA4T").
type TCPSignature struct {
	WindowSize int
	OptionKinds []int // wire order
	MSS         int
	WindowScale int
}

// JA4T builds the hyphen-joined TCP fingerprint: window_size, tcp option
// kinds, mss, wscale (spec.md §4.7 "JA4T").
func JA4T(sig TCPSignature) string {
	kinds := make([]string, len(sig.OptionKinds))
	for i, k := range sig.OptionKinds {
		kinds[i] = strconv.Itoa(k)
	}
	return strings.Join([]string{
		strconv.Itoa(sig.WindowSize),
		strings.Join(kinds, "-"),
		strconv.Itoa(sig.MSS),
		strconv.Itoa(sig.WindowScale),
	}, "_")
}

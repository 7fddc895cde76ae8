// Package fingerprint computes and matches the canonical fingerprint
// hashes spec.md §4.7 defines: JA3, normalised JA3, JA4, JA4H and JA4T,
// plus an in-memory similarity database over the profile catalogue.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ClientHelloSignature is the field-level view of a ClientHello that JA3/JA4
// are computed over, whether it came from a live composition or a passive
// capture (spec.md §4.6 "ClientHelloSignature").
type ClientHelloSignature struct {
	Version    uint16
	Ciphers    []uint16
	Extensions []uint16
	Curves     []uint16
	ECFormats  []uint8
	SNI        string
	ALPN       []string
}

func isGREASE(v uint16) bool { return v&0x0f0f == 0x0a0a }

func joinUint16(vals []uint16, skipGREASE bool) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		if skipGREASE && isGREASE(v) {
			continue
		}
		parts = append(parts, strconv.Itoa(int(v)))
	}
	return strings.Join(parts, "-")
}

func joinUint8(vals []uint8) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(int(v)))
	}
	return strings.Join(parts, "-")
}

// JA3 builds the raw, delimiter-joined JA3 string and its MD5 hash (spec.md
// §4.7 "JA3").
func JA3(sig ClientHelloSignature) (raw string, hash string) {
	raw = buildJA3(sig, false)
	sum := md5.Sum([]byte(raw))
	return raw, hex.EncodeToString(sum[:])
}

// JA3Normalised removes every GREASE value before hashing, so sessions from
// the same browser stay comparable across runs (spec.md §4.7 "JA3
// normalised").
func JA3Normalised(sig ClientHelloSignature) (raw string, hash string) {
	raw = buildJA3(sig, true)
	sum := md5.Sum([]byte(raw))
	return raw, hex.EncodeToString(sum[:])
}

func buildJA3(sig ClientHelloSignature, skipGREASE bool) string {
	return strings.Join([]string{
		strconv.Itoa(int(sig.Version)),
		joinUint16(sig.Ciphers, skipGREASE),
		joinUint16(sig.Extensions, skipGREASE),
		joinUint16(sig.Curves, skipGREASE),
		joinUint8(sig.ECFormats),
	}, ",")
}

func sha256Hash12(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func versionToken(v uint16) string {
	switch v {
	case 0x0304:
		return "13"
	case 0x0303:
		return "12"
	case 0x0301:
		return "10"
	default:
		return "00"
	}
}

func sortedHexJoined(vals []uint16, skipGREASE bool) string {
	hexVals := make([]string, 0, len(vals))
	for _, v := range vals {
		if skipGREASE && isGREASE(v) {
			continue
		}
		hexVals = append(hexVals, strconv.FormatUint(uint64(v), 16))
	}
	sort.Strings(hexVals)
	return strings.Join(hexVals, "-")
}

func countNonGREASE(vals []uint16) int {
	n := 0
	for _, v := range vals {
		if !isGREASE(v) {
			n++
		}
	}
	return n
}

// JA4 builds the simplified JA4 TLS-client fingerprint (spec.md §4.7
// "JA4"): prefix + cipher_hash12 + ext_hash12.
func JA4(sig ClientHelloSignature) string {
	sniFlag := "i"
	if sig.SNI != "" {
		sniFlag = "d"
	}
	alpnMark := "00"
	if len(sig.ALPN) > 0 && len(sig.ALPN[0]) > 0 {
		p := sig.ALPN[0]
		alpnMark = string(p[0]) + string(p[len(p)-1])
	}
	prefix := versionToken(sig.Version) + sniFlag +
		twoDigit(countNonGREASE(sig.Ciphers)) +
		twoDigit(countNonGREASE(sig.Extensions)) + alpnMark

	cipherHash := sha256Hash12(sortedHexJoined(sig.Ciphers, true))
	extHash := sha256Hash12(sortedHexJoined(sig.Extensions, true))
	return prefix + "_" + cipherHash + "_" + extHash
}

func twoDigit(n int) string {
	if n > 99 {
		n = 99
	}
	return fmt.Sprintf("%02d", n)
}

package fingerprint

import (
	"strings"

	"golang.org/x/text/language"
)

// HTTPRequestSignature is the field-level view of an HTTP/1.1 or HTTP/2
// request JA4H is computed over (spec.md §4.7 "JA4H").
type HTTPRequestSignature struct {
	Method       string
	HTTPVersion  string // e.g. "11", "20"
	HasCookie    bool
	HasReferer   bool
	HeaderNames  []string // wire order, excluding Cookie and Referer
	AcceptLang   string    // first Accept-Language token, if present
}

// JA4H builds the simplified JA4H HTTP-request fingerprint (spec.md §4.7
// "JA4H").
func JA4H(sig HTTPRequestSignature) string {
	method := strings.ToLower(sig.Method)
	if len(method) > 2 {
		method = method[:2]
	}
	for len(method) < 2 {
		method += "0"
	}

	cookieFlag := "n"
	if sig.HasCookie {
		cookieFlag = "c"
	}
	refFlag := "n"
	if sig.HasReferer {
		refFlag = "r"
	}

	langToken := ja4hLangToken(sig.AcceptLang)

	prefix := method + sig.HTTPVersion + cookieFlag + refFlag + twoDigit(len(sig.HeaderNames)) + langToken

	var names []string
	for _, n := range sig.HeaderNames {
		ln := strings.ToLower(n)
		if ln == "cookie" || ln == "referer" {
			continue
		}
		names = append(names, ln)
	}
	headerHash := sha256Hash12(strings.Join(names, ","))
	return prefix + "_" + headerHash
}

// ja4hLangToken parses the first BCP-47 tag of an Accept-Language header
// into JA4H's 4-character language+region code (e.g. "en-US" -> "enus"),
// padding with "0" when the tag carries no region subtag (spec.md §4.7).
func ja4hLangToken(acceptLang string) string {
	if acceptLang == "" {
		return "0000"
	}
	first := strings.TrimSpace(strings.SplitN(acceptLang, ",", 2)[0])
	first = strings.TrimSpace(strings.SplitN(first, ";", 2)[0])
	tag, err := language.Parse(first)
	if err != nil {
		return "0000"
	}
	base, _ := tag.Base()
	token := strings.ToLower(base.String())
	if region, conf := tag.Region(); conf == language.Exact {
		token += strings.ToLower(region.String())
	}
	for len(token) < 4 {
		token += "0"
	}
	return token[:4]
}

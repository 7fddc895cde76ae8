package ghostwire

import "github.com/duskmantle/ghostwire/headers"

// Request is a single outgoing exchange before profile merge (spec.md §3
// "Request", §4.5 public contract).
type Request struct {
	Method  string
	URL     string
	Headers *headers.List
	Body    []byte
}

// Response is the result of a completed exchange, including any redirects
// that were followed to reach it.
type Response struct {
	StatusCode int
	Status     string
	Headers    *headers.List
	Body       []byte
	Protocol   string // "http/1.1", "h2", "h3"

	// FinalURL is the URL the response actually came from, after redirects.
	FinalURL string
	// RedirectChain lists every URL visited before FinalURL, in order.
	RedirectChain []string
}

func newRequest(method, url string) *Request {
	return &Request{Method: method, URL: url, Headers: headers.New()}
}

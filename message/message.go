// Package message defines the envelopes exchanged between the link requester and the linkfinder service.
//
// On the wire both directions carry a single text frame: the request frame is the raw link,
// the reply frame is either a JSON document listing the links found or the literal "ERROR".
package message

// ErrorReply is sent instead of a link list when the link could not be crawled.
const ErrorReply = "ERROR"

// Request carries the link a client asked the service to crawl.
type Request struct {
	Link string // Opaque string, normally an absolute URL
}

// Response carries the result of crawling a single link.
//
//   - On success: Links holds every href found, in document order.
//   - On failure: Error is non-empty and the client receives ErrorReply.
//     Err keeps the original error when there is one, for classification.
type Response struct {
	Links []string `json:"links"`
	Error string   `json:"-"`
	Err   error    `json:"-"`
}

// Failed builds a Response describing err.
func Failed(err error) *Response {
	return &Response{Error: err.Error(), Err: err}
}

package proxyhttp

import (
	"io"
	"strconv"
	"strings"
)

// Response is an HTTP/1.1 response as read off (or to be written to)
// the wire, with header casing preserved.
type Response struct {
	Proto      string
	StatusCode int
	Reason     string
	Headers    Headers
	Body       io.ReadCloser
}

// IsUpgrade reports whether this response completes a protocol switch
// (101 Switching Protocols).
func (r *Response) IsUpgrade() bool {
	return r.StatusCode == 101
}

// ContentLength returns the response's declared body length and whether
// Content-Length was present at all.
func (r *Response) ContentLength() (int64, bool) {
	return contentLength(r.Headers)
}

// IsChunked reports whether the body uses chunked transfer encoding.
func (r *Response) IsChunked() bool {
	return hasToken(r.Headers, "Transfer-Encoding", "chunked")
}

// ServerName is the product token this proxy announces itself as,
// analogous to the original implementation's "rxh/<version>".
const ServerName = "xnav"

// Version is the proxy's version string, reported in the Server header.
const Version = "0.1.0"

// DefaultServerHeader is the Server header value used unless a pattern's
// HeaderRewriteConfig overrides it.
func DefaultServerHeader() string {
	return ServerName + "/" + Version
}

// ApplyServerHeader sets resp's Server header to value, replacing
// whatever the upstream sent — callers decide whether value augments or
// replaces based on their own override policy.
func ApplyServerHeader(resp *Response, value string) {
	resp.Headers.Set("Server", value)
}

// NotFound builds a locally originated 404 response.
func NotFound(serverHeader string) *Response {
	return localResponse(404, "Not Found", serverHeader, "HTTP 404 NOT FOUND")
}

// BadGateway builds a locally originated 502 response, used when a
// backend dial or handshake fails.
func BadGateway(serverHeader string) *Response {
	return localResponse(502, "Bad Gateway", serverHeader, "HTTP 502 BAD GATEWAY")
}

func localResponse(status int, reason, serverHeader, body string) *Response {
	headers := Headers{
		{Name: "Server", Value: serverHeader},
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "Content-Length", Value: strconv.Itoa(len(body))},
	}
	return &Response{
		Proto:      "HTTP/1.1",
		StatusCode: status,
		Reason:     reason,
		Headers:    headers,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// Package proxyhttp implements a minimal HTTP/1.1 message codec over a
// raw net.Conn, plus the request/response annotation helpers the
// forwarding and dispatch logic build on.
//
// net/http and httputil.ReverseProxy canonicalize header names on the
// way in and out (net/textproto.CanonicalMIMEHeaderKey), which makes it
// impossible to proxy byte-for-byte against upstreams that are sensitive
// to header casing. This package reads and writes headers exactly as
// they appear on the wire instead.
package proxyhttp

import "strings"

// Header is a single HTTP header field, preserving the exact name case
// it was read (or set) with.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of header fields. Order is preserved on
// both read and write, matching what a client or upstream actually sent.
type Headers []Header

// Get returns the value of the first header matching name
// case-insensitively, and whether it was found.
func (h Headers) Get(name string) (string, bool) {
	for _, field := range h {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// Has reports whether a header matching name is present.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Set replaces every header matching name with a single field carrying
// value. If name isn't present, the field is appended using a
// title-cased rendering of name (e.g. "forwarded" -> "Forwarded"),
// matching how a newly synthesized header looks next to the client's
// original casing on the wire.
func (h *Headers) Set(name, value string) {
	for i := range *h {
		if strings.EqualFold((*h)[i].Name, name) {
			(*h)[i].Value = value
			*h = append((*h)[:i+1], removeMatching((*h)[i+1:], name)...)
			return
		}
	}
	*h = append(*h, Header{Name: titleCase(name), Value: value})
}

// Add appends a header field without removing any existing ones with
// the same name.
func (h *Headers) Add(name, value string) {
	*h = append(*h, Header{Name: name, Value: value})
}

func removeMatching(fields []Header, name string) []Header {
	out := fields[:0]
	for _, f := range fields {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	return out
}

// titleCase renders a header name the way hyper's title_case_headers
// option does: each hyphen-separated word capitalized.
func titleCase(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, "-")
}

// Clone returns a deep copy of h.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

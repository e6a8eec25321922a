package proxyhttp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/L3oNav/xnav/internal/xnaverr"
)

const maxHeaderLine = 64 * 1024

// ReadRequest parses one HTTP/1.1 request from r, preserving header name
// casing and order exactly as received.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("proxyhttp: request line: %w", err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("proxyhttp: malformed request line %q: %w", line, xnaverr.ErrHTTP)
	}

	headers, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	req := &Request{Method: parts[0], Target: parts[1], Proto: parts[2], Headers: headers}
	req.Body = requestBodyReader(r, req)
	return req, nil
}

// WriteRequest serializes req to w exactly as parsed, byte for byte on
// the header section, copying Body (if any) through unmodified.
func WriteRequest(w io.Writer, req *Request) error {
	if _, err := fmt.Fprintf(w, "%s %s %s\r\n", req.Method, req.Target, req.Proto); err != nil {
		return err
	}
	if err := writeHeaders(w, req.Headers); err != nil {
		return err
	}
	if req.Body == nil {
		return nil
	}
	_, err := io.Copy(w, req.Body)
	return err
}

// ReadResponse parses one HTTP/1.1 response from r.
func ReadResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("proxyhttp: status line: %w", err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("proxyhttp: malformed status line %q: %w", line, xnaverr.ErrHTTP)
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("proxyhttp: malformed status code %q: %w", parts[1], xnaverr.ErrHTTP)
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	headers, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	resp := &Response{Proto: parts[0], StatusCode: status, Reason: reason, Headers: headers}
	resp.Body = responseBodyReader(r, resp)
	return resp, nil
}

// WriteResponse serializes resp to w.
func WriteResponse(w io.Writer, resp *Response) error {
	reason := resp.Reason
	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", resp.Proto, resp.StatusCode, reason); err != nil {
		return err
	}
	if err := writeHeaders(w, resp.Headers); err != nil {
		return err
	}
	if resp.Body == nil {
		return nil
	}
	_, err := io.Copy(w, resp.Body)
	return err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readHeaders reads header fields up to the blank line terminating them,
// preserving each field's original name casing and the order they
// arrived in.
func readHeaders(r *bufio.Reader) (Headers, error) {
	var headers Headers
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("proxyhttp: header line: %w", err)
		}
		if line == "" {
			return headers, nil
		}
		if len(line) > maxHeaderLine {
			return nil, fmt.Errorf("proxyhttp: header line too long: %w", xnaverr.ErrHTTP)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("proxyhttp: malformed header line %q: %w", line, xnaverr.ErrHTTP)
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
}

func writeHeaders(w io.Writer, headers Headers) error {
	for _, h := range headers {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", h.Name, h.Value); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

func hasToken(headers Headers, name, token string) bool {
	value, ok := headers.Get(name)
	if !ok {
		return false
	}
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

func contentLength(headers Headers) (int64, bool) {
	value, ok := headers.Get("Content-Length")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// requestBodyReader returns the reader a request's body should be read
// through: none for an upgrade handshake (the tunnel takes over the raw
// connection instead), Content-Length bounded, chunked, or absent.
func requestBodyReader(r *bufio.Reader, req *Request) io.ReadCloser {
	if req.IsUpgrade() {
		return nil
	}
	if n, ok := req.ContentLength(); ok {
		return io.NopCloser(io.LimitReader(r, n))
	}
	if req.IsChunked() {
		return io.NopCloser(newChunkedReader(r))
	}
	return nil
}

// responseBodyReader mirrors requestBodyReader for responses. A 101
// response has no body (the tunnel takes over next); an absent
// Content-Length/Transfer-Encoding pair on an otherwise-framed response
// means "read until the connection closes", which the forward service
// handles by treating r itself as the remaining body.
func responseBodyReader(r *bufio.Reader, resp *Response) io.ReadCloser {
	if resp.IsUpgrade() {
		return nil
	}
	if resp.StatusCode == 204 || resp.StatusCode == 304 {
		return nil
	}
	if n, ok := resp.ContentLength(); ok {
		return io.NopCloser(io.LimitReader(r, n))
	}
	if resp.IsChunked() {
		return io.NopCloser(newChunkedReader(r))
	}
	return io.NopCloser(r)
}

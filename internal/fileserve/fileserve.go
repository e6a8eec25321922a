// Package fileserve implements the static-file pattern action: it
// resolves a request path against a configured root directory and
// returns the file's contents, refusing to serve anything outside that
// root.
package fileserve

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/L3oNav/xnav/internal/proxyhttp"
)

// contentTypeByExtension mirrors the original implementation's small,
// explicit table: unknown extensions fall back to text/plain rather
// than attempting content sniffing.
var contentTypeByExtension = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
}

// Transfer resolves requestPath against root and returns a response
// whose body is the file's contents. A 404 is returned — never an
// error — for any resolution failure: missing root, missing file,
// directory, or an attempt to escape root via ".." or a symlink.
func Transfer(requestPath, root, serverHeader string) *proxyhttp.Response {
	directory, err := filepath.EvalSymlinks(root)
	if err != nil {
		return proxyhttp.NotFound(serverHeader)
	}
	directory, err = filepath.Abs(directory)
	if err != nil {
		return proxyhttp.NotFound(serverHeader)
	}

	joined := filepath.Join(directory, filepath.FromSlash(requestPath))
	file, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return proxyhttp.NotFound(serverHeader)
	}

	// Resolution happens post symlink-following: a symlink inside root
	// that points outside it must still be rejected.
	if !withinDirectory(directory, file) {
		return proxyhttp.NotFound(serverHeader)
	}

	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		return proxyhttp.NotFound(serverHeader)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return proxyhttp.NotFound(serverHeader)
	}

	contentType := contentTypeByExtension[strings.ToLower(filepath.Ext(file))]
	if contentType == "" {
		contentType = "text/plain"
	}

	headers := proxyhttp.Headers{
		{Name: "Server", Value: serverHeader},
		{Name: "Content-Type", Value: contentType},
		{Name: "Content-Length", Value: strconv.Itoa(len(content))},
	}
	return &proxyhttp.Response{
		Proto:      "HTTP/1.1",
		StatusCode: 200,
		Reason:     "OK",
		Headers:    headers,
		Body:       io.NopCloser(bytes.NewReader(content)),
	}
}

func withinDirectory(directory, file string) bool {
	rel, err := filepath.Rel(directory, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

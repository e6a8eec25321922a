package proxyhttp_test

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/proxyhttp"
)

func TestApplyForwardedWithoutExistingHeader(t *testing.T) {
	req := &proxyhttp.Request{Headers: proxyhttp.Headers{}}
	proxyhttp.ApplyForwarded(req, "127.0.0.1:8000", "127.0.0.1:9000", "")

	got, ok := req.Headers.Get("Forwarded")
	require.True(t, ok)
	assert.Equal(t, "for=127.0.0.1:8000;by=127.0.0.1:9000;host=127.0.0.1:9000", got)
}

func TestApplyForwardedWithProxyID(t *testing.T) {
	req := &proxyhttp.Request{Headers: proxyhttp.Headers{}}
	proxyhttp.ApplyForwarded(req, "127.0.0.1:8000", "127.0.0.1:9000", "xnav/main")

	got, ok := req.Headers.Get("Forwarded")
	require.True(t, ok)
	assert.Equal(t, "for=127.0.0.1:8000;by=xnav/main;host=127.0.0.1:9000", got)
}

func TestApplyForwardedAppendsToExistingHeader(t *testing.T) {
	req := &proxyhttp.Request{Headers: proxyhttp.Headers{
		{Name: "Forwarded", Value: "for=10.0.0.1;by=10.0.0.2;host=example.com"},
	}}
	proxyhttp.ApplyForwarded(req, "127.0.0.1:8000", "127.0.0.1:9000", "")

	got, _ := req.Headers.Get("Forwarded")
	assert.Equal(t,
		"for=10.0.0.1;by=10.0.0.2;host=example.com, for=127.0.0.1:8000;by=127.0.0.1:9000;host=127.0.0.1:9000",
		got)
}

func TestHeadersPreserveOriginalCase(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Custom-HEADER: value\r\nhost: example.com\r\n\r\n"
	req, err := proxyhttp.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)

	assert.Equal(t, "X-Custom-HEADER", req.Headers[0].Name)
	assert.Equal(t, "host", req.Headers[1].Name)

	v, ok := req.Headers.Get("x-custom-header")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestRequestRoundTripsOverTheWire(t *testing.T) {
	raw := "POST /upload HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	req, err := proxyhttp.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	var buf bytes.Buffer
	req.Body = io.NopCloser(bytes.NewReader(body))
	require.NoError(t, proxyhttp.WriteRequest(&buf, req))
	assert.Equal(t, raw, buf.String())
}

func TestUpgradeRequestHasNoBody(t *testing.T) {
	raw := "GET /ws HTTP/1.1\r\nHost: example.com\r\nConnection: Upgrade\r\nUpgrade: websocket\r\n\r\n"
	req, err := proxyhttp.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)

	assert.True(t, req.IsUpgrade())
	assert.Nil(t, req.Body)
}

func TestChunkedRequestBodyIsDecoded(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	req, err := proxyhttp.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
}

func TestNotFoundAndBadGatewayCarryServerHeader(t *testing.T) {
	notFound := proxyhttp.NotFound(proxyhttp.DefaultServerHeader())
	assert.Equal(t, 404, notFound.StatusCode)
	server, ok := notFound.Headers.Get("Server")
	require.True(t, ok)
	assert.Equal(t, "xnav/0.1.0", server)

	badGateway := proxyhttp.BadGateway(proxyhttp.DefaultServerHeader())
	assert.Equal(t, 502, badGateway.StatusCode)
}

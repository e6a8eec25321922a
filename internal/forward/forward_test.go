package forward_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/forward"
	"github.com/L3oNav/xnav/internal/proxyhttp"
)

func TestForwardRelaysRequestAndResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		req, err := proxyhttp.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		if req.Target != "/hello" {
			return
		}

		resp := &proxyhttp.Response{
			Proto:      "HTTP/1.1",
			StatusCode: 200,
			Reason:     "OK",
			Headers: proxyhttp.Headers{
				{Name: "Content-Length", Value: "2"},
			},
			Body: io.NopCloser(strings.NewReader("ok")),
		}
		proxyhttp.WriteResponse(conn, resp)
	}()

	req := &proxyhttp.Request{
		Method:  "GET",
		Target:  "/hello",
		Proto:   "HTTP/1.1",
		Headers: proxyhttp.Headers{{Name: "Host", Value: "example.com"}},
	}

	result, err := forward.Forward(context.Background(), req, ln.Addr().String(), forward.Options{
		ClientAddr:   "127.0.0.1:1111",
		ProxyAddr:    "127.0.0.1:2222",
		ServerHeader: "xnav/0.1.0",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Response)
	assert.Equal(t, 200, result.Response.StatusCode)
	assert.Nil(t, result.Tunnel)

	server, ok := result.Response.Headers.Get("Server")
	require.True(t, ok)
	assert.Equal(t, "xnav/0.1.0", server)

	body, err := io.ReadAll(result.Response.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	forwarded, ok := req.Headers.Get("Forwarded")
	require.True(t, ok)
	assert.Equal(t, "for=127.0.0.1:1111;by=127.0.0.1:2222;host=example.com", forwarded)
}

func TestForwardReturnsBadGatewayWhenBackendUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	req := &proxyhttp.Request{Method: "GET", Target: "/", Proto: "HTTP/1.1", Headers: proxyhttp.Headers{}}

	result, err := forward.Forward(context.Background(), req, addr, forward.Options{ServerHeader: "xnav/0.1.0"})
	require.NoError(t, err)
	assert.Equal(t, 502, result.Response.StatusCode)
}

func TestForwardNegotiatesUpgradeAndTunnels(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	backendEcho := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := proxyhttp.ReadRequest(bufio.NewReader(conn)); err != nil {
			return
		}

		resp := &proxyhttp.Response{
			Proto:      "HTTP/1.1",
			StatusCode: 101,
			Reason:     "Switching Protocols",
			Headers: proxyhttp.Headers{
				{Name: "Connection", Value: "Upgrade"},
				{Name: "Upgrade", Value: "websocket"},
			},
		}
		proxyhttp.WriteResponse(conn, resp)

		buf := make([]byte, 5)
		io.ReadFull(conn, buf)
		conn.Write(buf)
		close(backendEcho)
	}()

	req := &proxyhttp.Request{
		Method: "GET",
		Target: "/ws",
		Proto:  "HTTP/1.1",
		Headers: proxyhttp.Headers{
			{Name: "Host", Value: "example.com"},
			{Name: "Connection", Value: "Upgrade"},
			{Name: "Upgrade", Value: "websocket"},
		},
	}

	result, err := forward.Forward(context.Background(), req, ln.Addr().String(), forward.Options{ServerHeader: "xnav/0.1.0"})
	require.NoError(t, err)
	require.NotNil(t, result.Tunnel)
	assert.Equal(t, 101, result.Response.StatusCode)

	clientSide, proxySide := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- result.Tunnel(proxySide) }()

	clientSide.SetDeadline(time.Now().Add(2 * time.Second))
	_, err = clientSide.Write([]byte("hello"))
	require.NoError(t, err)

	echoed := make([]byte, 5)
	_, err = io.ReadFull(clientSide, echoed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(echoed))

	<-backendEcho
	clientSide.Close()
	<-done
}

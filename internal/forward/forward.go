// Package forward dials a backend, relays one request/response pair
// over the proxy's HTTP/1.1 wire codec, and — for a negotiated protocol
// upgrade — hands back a tunnel function that relays raw bytes
// bidirectionally between the client and the backend for the rest of
// the connection's life.
package forward

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/L3oNav/xnav/internal/proxyhttp"
	"github.com/L3oNav/xnav/internal/xnaverr"
)

// Result is what Forward hands back to the caller: the response to send
// the client, and — only when the backend agreed to switch protocols —
// a Tunnel function the caller must invoke once it has taken over the
// raw client connection.
type Result struct {
	Response *proxyhttp.Response
	Tunnel   func(client net.Conn) error
}

// Options configures how a request is relayed.
type Options struct {
	// ClientAddr and ProxyAddr feed the Forwarded header; ProxyID, if
	// set, is used as Forwarded's "by=" token instead of ProxyAddr.
	ClientAddr string
	ProxyAddr  string
	ProxyID    string

	// ServerHeader is the Server header value applied to the relayed
	// response. OverrideServerID controls whether it replaces the
	// backend's own Server header outright or is appended alongside it.
	ServerHeader     string
	OverrideServerID bool
}

// Forward dials backendAddr, relays req, and returns the backend's
// response. A dial failure, or a protocol switch the client did not ask
// for, yields a locally built 502 response rather than an error —
// matching the semantics of a proxy that must still answer the client
// even when the backend is down. A failure writing the request or
// reading the response is returned as an error.
func Forward(ctx context.Context, req *proxyhttp.Request, backendAddr string, opts Options) (*Result, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", backendAddr)
	if err != nil {
		return &Result{Response: proxyhttp.BadGateway(opts.ServerHeader)}, nil
	}

	wantsUpgrade := req.IsUpgrade()
	proxyhttp.ApplyForwarded(req, opts.ClientAddr, opts.ProxyAddr, opts.ProxyID)

	if err := proxyhttp.WriteRequest(conn, req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("forward: writing request to %s: %w: %w", backendAddr, err, xnaverr.ErrIO)
	}

	resp, err := proxyhttp.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("forward: reading response from %s: %w", backendAddr, err)
	}

	if resp.IsUpgrade() {
		if !wantsUpgrade {
			conn.Close()
			return &Result{Response: proxyhttp.BadGateway(opts.ServerHeader)}, nil
		}
		proxyhttp.ApplyServerHeaderRewrite(resp, opts.ServerHeader, opts.OverrideServerID)
		return &Result{
			Response: resp,
			Tunnel: func(client net.Conn) error {
				defer conn.Close()
				return tunnel(client, conn)
			},
		}, nil
	}

	proxyhttp.ApplyServerHeaderRewrite(resp, opts.ServerHeader, opts.OverrideServerID)
	return &Result{Response: resp}, nil
}

// tunnel relays bytes bidirectionally between client and backend until
// either side closes. It is intentionally not bound by any cancellation
// context: once a protocol switch is negotiated, the connection's
// lifetime belongs to the upgraded protocol, not to the proxy's own
// shutdown sequence.
func tunnel(client, backend net.Conn) error {
	var g errgroup.Group

	g.Go(func() error {
		_, err := io.Copy(backend, client)
		halfClose(backend)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(client, backend)
		halfClose(client)
		return err
	})

	return g.Wait()
}

// halfClose shuts down the write side of conn if it supports it, so the
// peer relaying into the other direction sees EOF instead of blocking
// forever once one side of the tunnel is done.
func halfClose(conn net.Conn) {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := conn.(writeCloser); ok {
		wc.CloseWrite()
	}
}

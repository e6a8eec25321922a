package listener_test

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/dispatch"
	"github.com/L3oNav/xnav/internal/listener"
	"github.com/L3oNav/xnav/internal/notify"
	"github.com/L3oNav/xnav/internal/proxyhttp"
	"github.com/L3oNav/xnav/internal/statelatch"
)

func TestListenerAdmitsUpToCapThenBlocks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	d, err := dispatch.New("test", []config.PatternConfig{{URI: "/", Serve: &config.ServeConfig{Root: root}}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	latch := statelatch.NewLatch(statelatch.Starting())
	n := notify.New()
	l := listener.New(ln, 1, n, d, latch, "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	held, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer held.Close()

	require.Eventually(t, func() bool {
		return latch.Get().String() != "starting"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListenerServesRequestsOverAcceptedConnection(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hi.txt"), []byte("hi"), 0o644))

	d, err := dispatch.New("test", []config.PatternConfig{{URI: "/", Serve: &config.ServeConfig{Root: root}}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	latch := statelatch.NewLatch(statelatch.Starting())
	l := listener.New(ln, 8, notify.New(), d, latch, "test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := &proxyhttp.Request{Method: "GET", Target: "/hi.txt", Proto: "HTTP/1.1", Headers: proxyhttp.Headers{{Name: "Host", Value: "x"}}}
	require.NoError(t, proxyhttp.WriteRequest(conn, req))

	resp, err := proxyhttp.ReadResponse(bufio.NewReader(conn))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

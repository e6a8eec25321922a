// Package listener runs the accept loop for one server socket: it
// admits connections under a weighted semaphore, hands each one to the
// dispatcher for the life of the connection, and coordinates graceful
// shutdown with in-flight connections through a notify.Notifier.
package listener

import (
	"bufio"
	"context"
	"errors"
	"net"

	"golang.org/x/sync/semaphore"

	"github.com/L3oNav/xnav/internal/dispatch"
	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/metrics"
	"github.com/L3oNav/xnav/internal/notify"
	"github.com/L3oNav/xnav/internal/proxyhttp"
	"github.com/L3oNav/xnav/internal/statelatch"
)

// Listener owns the accept loop for one net.Listener.
type Listener struct {
	ln          net.Listener
	connections *semaphore.Weighted
	maxConn     int64
	notifier    *notify.Notifier
	dispatcher  *dispatch.Dispatcher
	latch       *statelatch.Latch
	serverLabel string
}

// New builds a Listener. maxConn bounds how many connections may be
// in flight at once; ln is expected to already be bound and listening.
func New(ln net.Listener, maxConn int64, notifier *notify.Notifier, dispatcher *dispatch.Dispatcher, latch *statelatch.Latch, serverLabel string) *Listener {
	return &Listener{
		ln:          ln,
		connections: semaphore.NewWeighted(maxConn),
		maxConn:     maxConn,
		notifier:    notifier,
		dispatcher:  dispatcher,
		latch:       latch,
		serverLabel: serverLabel,
	}
}

// Run accepts connections until ctx is cancelled or the listener itself
// errors. Each accepted connection is handled on its own goroutine and
// is not waited for before Run returns — shutdown draining is the
// caller's job, coordinated through the same Notifier passed to New.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		if !l.connections.TryAcquire(1) {
			l.latch.Set(statelatch.MaxConnectionsReached(int(l.maxConn)))
			if err := l.connections.Acquire(ctx, 1); err != nil {
				return err
			}
			l.latch.Set(statelatch.Listening())
		}

		conn, err := l.ln.Accept()
		if err != nil {
			l.connections.Release(1)
			if errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}

		sub := l.notifier.Subscribe()
		go l.serveConnection(conn, sub)
	}
}

func (l *Listener) serveConnection(conn net.Conn, sub *notify.Subscription) {
	active := metrics.ActiveConnections.WithLabelValues(l.serverLabel)
	active.Inc()
	defer func() {
		active.Dec()
		if n, ok := sub.Receive(); ok && n == notify.Shutdown {
			logging.Debug().Str("server", l.serverLabel).Str("peer", conn.RemoteAddr().String()).Msg("connection finished during shutdown")
		}
		sub.Release()
		l.connections.Release(1)
		conn.Close()
	}()

	reader := bufio.NewReader(conn)
	clientAddr, serverAddr := conn.RemoteAddr(), conn.LocalAddr()

	for {
		req, err := proxyhttp.ReadRequest(reader)
		if err != nil {
			return
		}

		result := l.dispatcher.Dispatch(context.Background(), req, clientAddr, serverAddr)
		if err := proxyhttp.WriteResponse(conn, result.Response); err != nil {
			return
		}

		if result.Tunnel != nil {
			if err := result.Tunnel(conn); err != nil {
				logging.Debug().Str("server", l.serverLabel).Err(err).Msg("tunnel closed")
			}
			return
		}
	}
}

// Package proxyserver implements one proxy server: it owns a listening
// socket, dispatches accepted connections through a Dispatcher, and
// coordinates a two-phase graceful shutdown with whatever connections
// are still in flight when it is asked to stop.
//
// It mirrors the original implementation's Server/Listener split:
// Server owns the socket and the published lifecycle State, and
// delegates the accept loop itself to internal/listener.
package proxyserver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/dispatch"
	"github.com/L3oNav/xnav/internal/listener"
	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/notify"
	"github.com/L3oNav/xnav/internal/statelatch"
)

// Server listens on one or more addresses from a ServerConfig, dispatching
// accepted connections to the patterns it was configured with. It
// implements suture.Service so a Master can supervise it alongside its
// siblings.
type Server struct {
	cfg        config.ServerConfig
	dispatcher *dispatch.Dispatcher
	latch      *statelatch.Latch
	notifier   *notify.Notifier
}

// Init builds a Server for cfg. It does not open any sockets yet —
// that happens in Serve, so a Server can be constructed, registered
// with a supervisor, and started later.
func Init(cfg config.ServerConfig) (*Server, error) {
	if cfg.Connections <= 0 {
		cfg.Connections = config.DefaultConnections
	}

	d, err := dispatch.New(cfg.LogLabel, cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("proxyserver: building dispatcher for %s: %w", cfg.LogLabel, err)
	}

	return &Server{
		cfg:        cfg,
		dispatcher: d,
		latch:      statelatch.NewLatch(statelatch.Starting()),
		notifier:   notify.New(),
	}, nil
}

// Subscribe returns the Server's state latch, letting a caller observe
// State transitions (used by tests).
func (s *Server) Subscribe() *statelatch.Latch {
	return s.latch
}

// Serve opens every configured listen address and runs its accept loop
// until ctx is cancelled, then drains in-flight connections before
// returning. It satisfies suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	listeners := make([]net.Listener, 0, len(s.cfg.Listen))
	for _, addr := range s.cfg.Listen {
		ln, err := listen(addr)
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			s.latch.Set(statelatch.ShuttingDownDone())
			return fmt.Errorf("proxyserver: listening on %s: %w", addr, err)
		}
		listeners = append(listeners, ln)
		logging.Info().Str("server", s.cfg.LogLabel).Str("addr", ln.Addr().String()).Msg("listening")
	}

	s.latch.Set(statelatch.Listening())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(listeners))
	for _, ln := range listeners {
		l := listener.New(ln, int64(s.cfg.Connections), s.notifier, s.dispatcher, s.latch, s.cfg.LogLabel)
		go func() { errs <- l.Run(runCtx) }()
	}

	// A listener-fatal error must itself trigger shutdown rather than
	// wait for ctx to be cancelled externally: race the caller's
	// cancellation against the first listener to die, then cancel
	// runCtx either way so every sibling listener stops too.
	var firstErr error
	received := 0
	select {
	case <-ctx.Done():
	case err := <-errs:
		received++
		if err != nil && !errors.Is(err, context.Canceled) {
			firstErr = err
		}
	}
	cancel()

	for ; received < len(listeners); received++ {
		if err := <-errs; err != nil && firstErr == nil && !errors.Is(err, context.Canceled) {
			firstErr = err
		}
	}

	pending := s.notifier.Send(notify.Shutdown)
	s.latch.Set(statelatch.ShuttingDownPending(pending))
	if pending > 0 {
		logging.Info().Str("server", s.cfg.LogLabel).Int("pending", pending).Msg("waiting for connections to drain")
	}
	s.notifier.CollectAcknowledgements()

	s.latch.Set(statelatch.ShuttingDownDone())
	logging.Info().Str("server", s.cfg.LogLabel).Msg("shutdown complete")
	return firstErr
}

// listen opens a TCP listener on addr. The original implementation sets
// SO_REUSEADDR by hand on non-Windows platforms before bind(); Go's
// net.ListenConfig.Control hook exists for exactly this, but the
// standard listener already enables SO_REUSEADDR on Unix by default, so
// no Control callback is needed here.
func listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Package master owns every configured proxy server and coordinates an
// all-or-nothing shutdown: whichever comes first between the caller's
// context being cancelled and any one server exiting with an error,
// every other server is asked to stop, and Run does not return until
// all of them have finished draining. The metrics debug server, which
// has no such all-or-nothing requirement, runs under a suture tree
// alongside them instead.
package master

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/metrics"
	"github.com/L3oNav/xnav/internal/proxyserver"
	"github.com/L3oNav/xnav/internal/supervisor"
)

// Master runs every configured Server side by side, plus a supervisor
// tree holding the optional metrics debug server.
type Master struct {
	tree    *supervisor.Tree
	servers []*proxyserver.Server
}

// New builds a Master for cfg, constructing one Server per configured
// entry but not starting any of them yet.
func New(cfg *config.Config) (*Master, error) {
	tree := supervisor.New(logging.NewSlogLogger(), "xnav", supervisor.DefaultTreeConfig())

	servers := make([]*proxyserver.Server, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		srv, err := proxyserver.Init(sc)
		if err != nil {
			return nil, fmt.Errorf("master: building server %s: %w", sc.LogLabel, err)
		}
		servers = append(servers, srv)
	}

	if cfg.MetricsAddr != "" {
		tree.Add(metrics.NewDebugServer(cfg.MetricsAddr))
	}

	return &Master{tree: tree, servers: servers}, nil
}

// Run starts every server and the metrics debug server (if configured)
// and blocks until ctx is cancelled or one of them returns an error.
//
// Each proxy Server is raced directly through an errgroup rather than
// added to the suture tree: suture.Supervisor restarts a failed service
// with backoff instead of surfacing its error, which would silently
// mask a listener-fatal failure rather than cascade shutdown to its
// siblings and surface the error as Run's return value. errgroup gives
// exactly that: the first Server to return a non-nil error cancels
// gctx, which every sibling Server's Serve observes as its own shutdown
// trigger, and Wait returns that first error. The metrics debug server
// has no such all-or-nothing requirement, so it still runs under the
// suture tree with its ordinary supervised-restart behavior.
func (m *Master) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		srv := srv
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}
	g.Go(func() error {
		return m.tree.Serve(gctx)
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Servers returns the Servers this Master runs, so tests can observe
// their state latches.
func (m *Master) Servers() []*proxyserver.Server {
	return m.servers
}

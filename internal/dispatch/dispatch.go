// Package dispatch matches an incoming request's path against a
// server's ordered pattern list and routes it to either the forward
// service or the static file service.
package dispatch

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/fileserve"
	"github.com/L3oNav/xnav/internal/forward"
	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/metrics"
	"github.com/L3oNav/xnav/internal/proxyhttp"
	"github.com/L3oNav/xnav/internal/scheduler"
)

// route binds one configured pattern to the scheduler built for it, if
// it forwards, so the same scheduler instance (and its cycle position)
// persists across requests.
type route struct {
	uri       string
	pattern   config.PatternConfig
	scheduler scheduler.Scheduler
}

// Dispatcher routes requests for one server to the action its
// first-matching pattern names.
type Dispatcher struct {
	serverLabel string
	routes      []route
}

// New builds a Dispatcher from a server's pattern list, constructing one
// Scheduler per forwarding pattern up front so the hot path never builds
// one per request.
func New(serverLabel string, patterns []config.PatternConfig) (*Dispatcher, error) {
	routes := make([]route, len(patterns))
	for i, p := range patterns {
		r := route{uri: p.URI, pattern: p}
		if p.Forward != nil {
			s, err := scheduler.New(p.Forward.Algorithm, p.Forward.Backends)
			if err != nil {
				return nil, err
			}
			r.scheduler = s
		}
		routes[i] = r
	}
	return &Dispatcher{serverLabel: serverLabel, routes: routes}, nil
}

// Dispatch routes req to the action of the first pattern whose URI is a
// prefix of the request's target path, returning the response to send
// the client and — for a negotiated upgrade — a non-nil Tunnel.
func (d *Dispatcher) Dispatch(ctx context.Context, req *proxyhttp.Request, clientAddr, proxyAddr net.Addr) *forward.Result {
	start := time.Now()
	path := requestPath(req.Target)

	r, ok := d.match(path)
	if !ok {
		resp := proxyhttp.NotFound(proxyhttp.DefaultServerHeader())
		d.logAccess(req, clientAddr, resp.StatusCode, start)
		metrics.RecordRequest(d.serverLabel, "none", strconv.Itoa(resp.StatusCode), time.Since(start))
		return &forward.Result{Response: resp}
	}

	var result *forward.Result
	var action string
	switch {
	case r.pattern.Forward != nil:
		action = "forward"
		backend := r.scheduler.NextServer()
		serverHeader := headerValue(r.pattern.HeaderRewrite)
		res, err := forward.Forward(ctx, req, backend, forward.Options{
			ClientAddr:       clientAddr.String(),
			ProxyAddr:        proxyAddr.String(),
			ProxyID:          proxyID(r.pattern.HeaderRewrite),
			ServerHeader:     serverHeader,
			// spec.md §4.D requires an unconditional overwrite of the
			// Server header; augmenting the backend's own value instead
			// of replacing it is an opt-in behavior of the HeaderRewrite
			// feature (SPEC_FULL.md §9), so the plain overwrite stays the
			// default whenever a pattern has no HeaderRewrite configured.
			OverrideServerID: r.pattern.HeaderRewrite == nil || r.pattern.HeaderRewrite.Override,
		})
		if err != nil {
			logging.Error().Err(err).Str("server", d.serverLabel).Str("backend", backend).Msg("forward failed")
			metrics.RecordBackendError(d.serverLabel, backend)
			res = &forward.Result{Response: proxyhttp.BadGateway(serverHeader)}
		}
		if res.Tunnel != nil {
			metrics.RecordUpgrade(d.serverLabel)
		}
		result = res
	case r.pattern.Serve != nil:
		action = "serve"
		resp := fileserve.Transfer(strings.TrimPrefix(path, "/"), r.pattern.Serve.Root, proxyhttp.DefaultServerHeader())
		result = &forward.Result{Response: resp}
	}

	d.logAccess(req, clientAddr, result.Response.StatusCode, start)
	metrics.RecordRequest(d.serverLabel, action, strconv.Itoa(result.Response.StatusCode), time.Since(start))
	return result
}

func (d *Dispatcher) match(path string) (route, bool) {
	for _, r := range d.routes {
		// Plain string prefix, not path-segment aware: "/api" also matches "/api-v2".
		if strings.HasPrefix(path, r.uri) {
			return r, true
		}
	}
	return route{}, false
}

func (d *Dispatcher) logAccess(req *proxyhttp.Request, clientAddr net.Addr, status int, start time.Time) {
	logging.Info().
		Str("server", d.serverLabel).
		Str("peer", clientAddr.String()).
		Str("method", req.Method).
		Str("uri", req.Target).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

func requestPath(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}

func headerValue(rewrite *config.HeaderRewriteConfig) string {
	if rewrite != nil && rewrite.ServerName != "" {
		return rewrite.ServerName
	}
	return proxyhttp.DefaultServerHeader()
}

func proxyID(rewrite *config.HeaderRewriteConfig) string {
	if rewrite != nil {
		return rewrite.ForwardedBy
	}
	return ""
}

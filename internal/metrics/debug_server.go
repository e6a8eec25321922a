package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DebugServer exposes /metrics on its own listener, separate from any
// proxy listen address, so scraping it can never collide with pattern
// dispatch. It implements suture.Service so a Master can supervise it
// alongside the proxy Servers when configured.
type DebugServer struct {
	addr string
	srv  *http.Server
}

// NewDebugServer builds a DebugServer bound to addr. If addr is empty,
// Serve opens no listener and just waits for its context to end, then
// returns nil, since the metrics endpoint is optional.
func NewDebugServer(addr string) *DebugServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &DebugServer{addr: addr, srv: &http.Server{Addr: addr, Handler: mux}}
}

// Serve implements suture.Service.
func (d *DebugServer) Serve(ctx context.Context) error {
	if d.addr == "" {
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return d.srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// StartMetricsServer serves handler at /metrics on addr until ctx is done.
// It returns once the listener is bound; the returned address is the one
// actually in use.
func StartMetricsServer(ctx context.Context, addr string, handler http.Handler) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			LogError("metrics server stopped", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	LogDebug("metrics server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

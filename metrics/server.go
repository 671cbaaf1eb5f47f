package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /metrics for hosts that do not already expose Prometheus.
// The collectors register with the default registry either way.
type Server struct {
	server  *http.Server
	errChan chan error
}

// NewServer creates a metrics server on addr, e.g. ":9090".
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		errChan: make(chan error, 1),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves in a goroutine and returns immediately.
// Startup failures are reported through Err.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errChan <- err
		}
	}()
}

// Err returns a serve error if one occurred, without blocking.
func (s *Server) Err() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

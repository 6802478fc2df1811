package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"osc2truegear/internal/logger"
)

// Server serves the registry on /metrics and a liveness probe on /health.
type Server struct {
	log     logger.Logger
	addr    string
	metrics *Metrics
	server  *http.Server
	ln      net.Listener
}

// NewServer конструктор.
func NewServer(log logger.Logger, addr string, m *Metrics) *Server {
	return &Server{log: log, addr: addr, metrics: m}
}

// Start binds the listener synchronously and serves in the background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.metrics == nil {
		return errors.New("metrics server: nil metrics")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.With(logger.Fields{"module": "metrics"}).Errorf("metrics server stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.With(logger.Fields{"module": "metrics"}).Infof("serving metrics on http://%s/metrics", ln.Addr())
	return nil
}

// Addr returns the bound address; useful when started on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Stop shuts the HTTP server down.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

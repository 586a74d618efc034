package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imgscraper/pkg/logger"
)

// Server exposes /metrics and /healthz for the lifetime of a run
type Server struct {
	addr    string
	metrics *Metrics
	logger  logger.Logger
	srv     *http.Server
	ln      net.Listener
}

// NewServer creates a server for m listening on addr
func NewServer(addr string, m *Metrics, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{addr: addr, metrics: m, logger: log}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the chi router serving the endpoints
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	logger.LogComponentStart(s.logger, "metrics", map[string]interface{}{"addr": ln.Addr().String()})

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Metrics server failed")
		}
	}()
	return nil
}

// Addr returns the bound address, useful when listening on port 0
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	defer logger.LogComponentStop(s.logger, "metrics", "shutdown")
	return s.srv.Shutdown(ctx)
}

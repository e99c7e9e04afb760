// Package apiserver exposes a read-only HTTP view of a running session:
// health probes, metrics and the cached object tree.
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fbuehrmann/netxms/pkg/logger"
	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/observability"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

// Source is the session state served over HTTP.
type Source interface {
	Store() *objects.Store
	State() transport.State
	Metrics() *observability.Metrics
}

// Server serves the HTTP view of a Source.
type Server struct {
	*logger.Logger

	src  Source
	mux  *http.ServeMux
	http *http.Server
}

// New returns a Server for src listening on addr once started.
func New(addr string, src Source, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New()
	}
	s := &Server{
		Logger: log.With("component", "apiserver"),
		src:    src,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.mux)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.Infof("serving on %s", ln.Addr())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

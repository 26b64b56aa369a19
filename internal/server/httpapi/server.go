package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ilepins/userauth/internal/logging"
	"github.com/ilepins/userauth/internal/server/config"
	"github.com/ilepins/userauth/internal/server/users"
)

// Server wraps an http.Server with configured routes and middleware.
type Server struct {
	inner *http.Server
}

// NewServer wires middleware and routes and returns a ready server.
func NewServer(cfg *config.Config, logger logging.Logger, service *users.Service) *Server {
	mux := http.NewServeMux()

	handler := NewHandler(service, logger, cfg)
	handler.Register(mux)

	chain := CORS(cfg.CORSOrigins, RequestLogging(logger, mux))

	return &Server{
		inner: &http.Server{
			Addr:              cfg.EndpointAddr,
			Handler:           chain,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start begins serving HTTP traffic and blocks until the server stops.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

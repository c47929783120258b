package api

import (
	"context"
	"time"
)

// ServerStarter runs a Server until its context ends. The CLI goes through
// this seam so tests can capture the configured server instead of binding a
// port.
type ServerStarter interface {
	StartServer(ctx context.Context, server *Server) error
}

// ServerFactory hands out starters
type ServerFactory interface {
	CreateServerStarter() ServerStarter
}

// DefaultServerFactory builds listening starters
type DefaultServerFactory struct {
	ShutdownTimeout time.Duration // Zero uses the package default
}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter returns a starter that listens on the server's address
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{ShutdownTimeout: f.ShutdownTimeout}
}

// DefaultServerStarter listens with net/http and drains connections on
// shutdown
type DefaultServerStarter struct {
	ShutdownTimeout time.Duration
}

// StartServer serves server until ctx is cancelled
func (s *DefaultServerStarter) StartServer(ctx context.Context, server *Server) error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}
	return serve(ctx, server, timeout)
}

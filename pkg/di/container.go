// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/api" //nolint:depguard
	"github.com/ssargent/canvaslog/pkg/logging"
	"github.com/ssargent/canvaslog/pkg/metrics"
)

// LoggerFactory builds a logger for a configured level
type LoggerFactory func(level string) (*zap.Logger, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	loggerFactory LoggerFactory
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Container{
		serverFactory: api.NewServerFactory(),
		loggerFactory: logging.New,
		registry:      registry,
		metrics:       metrics.New(registry),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// NewLogger builds a logger at level
func (c *Container) NewLogger(level string) (*zap.Logger, error) {
	return c.loggerFactory(level)
}

// SetLoggerFactory allows overriding how loggers are built (for testing)
func (c *Container) SetLoggerFactory(factory LoggerFactory) {
	c.loggerFactory = factory
}

// GetRegistry returns the registry every collector is registered with
func (c *Container) GetRegistry() *prometheus.Registry {
	return c.registry
}

// GetMetrics returns the application metrics
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}

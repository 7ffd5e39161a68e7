// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package server implements the HTTP license validation service.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

const (
	validatePath = "/v1/validate"
	healthzPath  = "/healthz"
	metricsPath  = "/metrics"
)

// Options configures the validation server.
type Options struct {
	// PublicKey verifies the license serials. Required.
	PublicKey *licensefile.PublicKey

	// Extractor parses the license files.
	// Defaults to licensefile.DefaultExtractor.
	Extractor licensefile.Extractor

	// Logger receives request logs. Defaults to a discard logger.
	Logger logr.Logger
}

// Server validates license files over HTTP. The key and extractor
// are fixed at construction and shared by all requests.
type Server struct {
	key       *licensefile.PublicKey
	extractor licensefile.Extractor
	logger    logr.Logger
	registry  *prometheus.Registry
	metrics   *Metrics
}

// New creates a Server with its own metrics registry.
func New(opts Options) (*Server, error) {
	if opts.PublicKey == nil || opts.PublicKey.Key == nil {
		return nil, licensefile.InputError(licensefile.ErrPublicKeyRequired)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = licensefile.DefaultExtractor()
	}

	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		key:       opts.PublicKey,
		extractor: extractor,
		logger:    logger,
		registry:  registry,
		metrics:   NewMetrics(registry),
	}, nil
}

// Handler returns the HTTP handler serving the validation,
// health and metrics endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+validatePath, s.ValidateHandler)
	mux.HandleFunc("GET "+healthzPath, s.HealthzHandler)
	mux.Handle("GET "+metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return LoggingMiddleware(s.logger, RecoverMiddleware(s.logger, mux))
}

// Start listens on addr and serves requests until the context is cancelled,
// then shuts down gracefully within the timeout.
func (s *Server) Start(ctx context.Context, addr string, timeout time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener, timeout)
}

// Serve is like Start but accepts connections on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener, timeout time.Duration) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  timeout,
	}

	s.logger.Info("Starting license validation server",
		"address", listener.Addr().String(),
		"algorithm", s.key.Algorithm())

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error(err, "Failed to start license validation server")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received, gracefully stopping license validation server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		s.logger.Error(err, "Error during graceful shutdown")
		return err
	}

	s.logger.Info("License validation server stopped")
	return nil
}

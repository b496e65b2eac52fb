// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the registry over HTTP. It expects an upstream
// authentication layer to verify callers and pass the verified identity in
// the X-Geode-Caller header.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const DefaultListenAddress = ":8080"

type Config struct {
	ListenAddress string
	// ShutdownTimeout bounds the graceful shutdown triggered by context
	// cancellation
	ShutdownTimeout time.Duration
}

// Server is the registry REST API server
type Server struct {
	config     Config
	logger     *slog.Logger
	registry   Registry
	proxy      ProxyAdmin
	httpServer *http.Server
	done       chan struct{}
	listenAddr net.Addr
	mu         sync.Mutex
}

// New creates a new API server. proxy may be nil when the registry is not
// behind an upgrade proxy.
func New(
	cfg Config,
	reg Registry,
	proxy ProxyAdmin,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		config:   cfg,
		logger:   logger,
		registry: reg,
		proxy:    proxy,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/registry", s.handleStatus)
	mux.HandleFunc("GET /api/v1/workspaces", s.handleListWorkspaces)
	mux.HandleFunc("POST /api/v1/workspaces", s.handleAddWorkspace)
	mux.HandleFunc("GET /api/v1/workspaces/{id}", s.handleGetWorkspace)
	mux.HandleFunc(
		"POST /api/v1/workspaces/{id}/proposals",
		s.handleAddProposal,
	)
	mux.HandleFunc("GET /api/v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("GET /api/v1/proposals/{id}/votes", s.handleGetVotes)
	mux.HandleFunc("PUT /api/v1/proposals/{id}/votes", s.handleSubmitVotes)
	mux.HandleFunc("GET /api/v1/roles/{role}", s.handleRoleMembers)
	mux.HandleFunc("GET /api/v1/roles/{role}/{member}", s.handleHasRole)
	mux.HandleFunc("PUT /api/v1/roles/{role}/{member}", s.handleGrantRole)
	mux.HandleFunc("DELETE /api/v1/roles/{role}/{member}", s.handleRevokeRole)
	mux.HandleFunc("POST /api/v1/lifecycle/reset", s.handleReset)
	mux.HandleFunc("POST /api/v1/lifecycle/kill-switch", s.handleKillSwitch)
	mux.HandleFunc("GET /api/v1/proxy", s.handleProxyStatus)
	mux.HandleFunc("POST /api/v1/proxy/upgrade", s.handleUpgrade)
	mux.HandleFunc("POST /api/v1/proxy/owner", s.handleTransferProxyOwnership)
	return mux
}

// Start starts the HTTP server in a background goroutine
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr: s.config.ListenAddress,
		// Use h2c so we can serve HTTP/2 without TLS
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	done := make(chan struct{})
	s.httpServer = server
	s.done = done
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.done = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info(
		"API listener started on " + s.Addr().String(),
	)

	// Monitor context for cancellation until Stop is called
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		s.mu.Lock()
		var srv *http.Server
		// After Stop and a new Start the server belongs to the new monitor
		if s.done == done {
			srv = s.httpServer
			s.httpServer = nil
			s.done = nil
		}
		s.mu.Unlock()

		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				s.config.ShutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// Addr returns the bound listen address once the server has started
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// startServer binds the listening socket first so port conflicts are
// detected immediately, then serves in a background goroutine
func (s *Server) startServer(
	server *http.Server,
) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	s.mu.Lock()
	s.listenAddr = ln.Addr()
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}

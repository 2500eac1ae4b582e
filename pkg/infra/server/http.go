package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/kart-io/logger"

	httpopts "github.com/kart-io/rag-assistant/pkg/options/http"
)

var _ Runnable = (*HTTPServer)(nil)

// HTTPServer serves a handler with the configured timeouts.
type HTTPServer struct {
	opts    *httpopts.Options
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewHTTPServer creates an HTTP server for handler.
func NewHTTPServer(opts *httpopts.Options, handler http.Handler) *HTTPServer {
	if opts == nil {
		opts = httpopts.NewOptions()
	}
	return &HTTPServer{opts: opts, handler: handler}
}

// Name returns the server name.
func (s *HTTPServer) Name() string {
	return "http"
}

// Start binds the listen address and serves in the background.
// Bind errors are returned synchronously.
func (s *HTTPServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped unexpectedly", "addr", ln.Addr().String(), "error", err.Error())
		}
	}(s.server)

	logger.Infow("HTTP server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	return err
}

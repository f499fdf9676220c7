// Package server wires the HTTP routes and runs the namechat server.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/handler"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/middleware"
	"github.com/devaloi/namechat/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

// Server serves the REST and WebSocket API over a hub.
type Server struct {
	hub     *hub.Hub
	wallets wallet.Provider
	log     zerolog.Logger
	handler http.Handler
}

// New builds the routes for h. wallets supplies owner addresses for
// WebSocket connections that do not name one.
func New(h *hub.Hub, wallets wallet.Provider, log zerolog.Logger) *Server {
	s := &Server{hub: h, wallets: wallets, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health())
	mux.HandleFunc("GET /api/names", handler.ListNames(h))
	mux.HandleFunc("POST /api/names", handler.RegisterName(h))
	mux.HandleFunc("GET /api/owners/{owner}", handler.Whois(h))
	mux.HandleFunc("GET /api/messages", handler.ListMessages(h))
	mux.HandleFunc("POST /api/messages", handler.PostMessage(h))
	mux.HandleFunc("GET /api/stats", handler.Stats(h))
	mux.HandleFunc("GET /ws", handler.ServeWS(h, wallets, log))

	s.handler = middleware.Logging(log)(middleware.CORS(mux))
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.log.WithContext(context.Background()) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("namechat listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config controls the broadcast server's listener.
type Config struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// DefaultConfig returns the standard realtime configuration.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:8090",
		Path: "/ws",
	}
}

// Server owns the broadcast hub and its HTTP listener.
type Server struct {
	cfg        Config
	hub        *Hub
	httpServer *http.Server
	listener   net.Listener
	cancelRun  context.CancelFunc
}

// NewServer creates a broadcast server with a fresh hub.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}

	s := &Server{cfg: cfg, hub: NewHub()}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, s.handleWS)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Hub exposes the server's hub for broadcast calls.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the websocket upgrade handler; exported for embedding the
// endpoint into an existing mux.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ServeWS(s.hub, w, r)
}

// Start runs the hub loop and the HTTP listener. It returns once the
// listener is accepting connections.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	go s.hub.Run(runCtx)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		cancel()
		return fmt.Errorf("realtime listener failed on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Realtime server stopped", "error", err)
		}
	}()

	slog.Info("Realtime server listening", "addr", ln.Addr(), "path", s.cfg.Path)
	return nil
}

// Addr returns the bound listener address, or the configured address before
// Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Stop closes every open connection, then tears down the listener. No
// connection is abandoned without an explicit close frame.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancelRun != nil {
		// Cancelling the run loop closes all live connections.
		s.cancelRun()
	}
	return s.httpServer.Shutdown(ctx)
}

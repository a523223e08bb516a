// Package websocket serves the game over WebSocket connections carrying JSON
// event envelopes.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tictactoe/internal/config"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
	"github.com/cory-johannsen/tictactoe/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// Server upgrades HTTP requests on the configured path and bridges each
// connection to the Dispatcher. GET /healthz reports live counts.
type Server struct {
	cfg        config.WebSocketConfig
	dispatcher *gameserver.Dispatcher
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	httpSrv  *http.Server
	listener net.Listener
	clients  map[string]*websocket.Conn
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// NewServer creates a WebSocket server.
//
// Precondition: d and logger must be non-nil; cfg must pass config validation.
// Postcondition: Returns a Server ready to be started with ListenAndServe.
func NewServer(cfg config.WebSocketConfig, d *gameserver.Dispatcher, logger *zap.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     logger,
		clients:    make(map[string]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and any origin when the allow list is empty or contains "*".
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Handler returns the HTTP routes served by s.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

// ListenAndServe binds the listener and serves until Stop is called.
//
// Precondition: The server must not already be running.
// Postcondition: The listener is closed when this method returns.
func (s *Server) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("websocket server listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.cfg.Path),
		zap.Duration("startup", time.Since(start)),
	)

	if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket: %w", err)
	}
	return nil
}

// Start satisfies server.Service.
func (s *Server) Start() error {
	return s.ListenAndServe()
}

// Stop shuts down the HTTP server, closes every live connection and waits
// for their pumps to exit.
//
// Postcondition: All connections are closed and goroutines have exited.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("websocket server shutdown", zap.Error(err))
	}

	// Hijacked connections are not tracked by http.Server.
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = c.Close()
	}
	s.wg.Wait()

	s.logger.Info("websocket server stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

type healthReport struct {
	Sessions    int `json:"sessions"`
	Connections int `json:"connections"`
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessions, conns := s.dispatcher.Stats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthReport{Sessions: sessions, Connections: conns}); err != nil {
		s.logger.Debug("writing health report", zap.Error(err))
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id := uuid.NewString()
	c := &client{
		id:         id,
		ws:         ws,
		outbox:     gameserver.NewOutbox(id, s.cfg.SendBuffer),
		dispatcher: s.dispatcher,
		cfg:        s.cfg,
		logger:     observability.ForConnection(s.logger, "websocket", id),
	}

	if err := s.dispatcher.Connect(c.outbox); err != nil {
		s.logger.Error("registering connection", zap.Error(err))
		_ = ws.Close()
		return
	}
	if !s.track(c) {
		s.dispatcher.Disconnect(id)
		_ = ws.Close()
		return
	}

	c.logger.Info("client connected", zap.String("remote_addr", r.RemoteAddr))
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		start := time.Now()
		c.readPump()
		s.untrack(id)
		c.logger.Info("client disconnected", zap.Duration("duration", time.Since(start)))
	}()
}

// track records c and reserves its two pump goroutines. It fails once Stop
// has begun so Stop never waits on pumps it did not see.
func (s *Server) track(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.id] = c.ws
	s.wg.Add(2)
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

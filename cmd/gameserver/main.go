// Package main provides the tic-tac-toe server binary. It serves the game over
// WebSocket, optionally over Telnet, and exposes a gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tictactoe/internal/config"
	"github.com/cory-johannsen/tictactoe/internal/frontend/handlers"
	"github.com/cory-johannsen/tictactoe/internal/frontend/telnet"
	"github.com/cory-johannsen/tictactoe/internal/frontend/websocket"
	"github.com/cory-johannsen/tictactoe/internal/game/session"
	"github.com/cory-johannsen/tictactoe/internal/gameserver"
	"github.com/cory-johannsen/tictactoe/internal/observability"
	"github.com/cory-johannsen/tictactoe/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty uses defaults and environment")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	registry := session.NewRegistry(session.WithIDLength(cfg.Session.IDLength))
	dispatcher := gameserver.NewDispatcher(registry, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("websocket", websocket.NewServer(cfg.WebSocket, dispatcher, logger))

	if cfg.Telnet.Enabled {
		text := handlers.NewTextHandler(dispatcher, cfg.WebSocket.SendBuffer, logger)
		lifecycle.Add("telnet", telnet.NewAcceptor(cfg.Telnet, text, logger))
	}

	if cfg.Health.Enabled {
		lifecycle.Add("health", server.NewHealthServer(cfg.Health.Addr(), logger))
	}

	if cfg.Session.IdleTimeout > 0 {
		lifecycle.Add("reaper", gameserver.NewReaper(dispatcher, cfg.Session.IdleTimeout, cfg.Session.ReapInterval, logger))
	}

	logger.Info("tic-tac-toe server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("websocket_addr", cfg.WebSocket.Addr()),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Bool("health", cfg.Health.Enabled),
		zap.Duration("idle_timeout", cfg.Session.IdleTimeout),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

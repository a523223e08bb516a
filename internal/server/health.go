package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the game coordinator.
const ServiceName = "tictactoe.Coordinator"

// HealthServer exposes the standard grpc.health.v1 service so orchestrators
// can probe the process. It satisfies Service.
type HealthServer struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

// NewHealthServer creates a health server bound to addr when started.
// Both the overall ("") and ServiceName statuses start as SERVING.
//
// Precondition: logger must be non-nil.
func NewHealthServer(addr string, logger *zap.Logger) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	g := grpc.NewServer()
	healthpb.RegisterHealthServer(g, hs)

	return &HealthServer{
		addr:   addr,
		grpc:   g,
		health: hs,
		logger: logger,
	}
}

// Start listens on the configured address and serves until Stop.
func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	return h.Serve(lis)
}

// Serve serves health checks on lis until Stop. Returns nil when Stop has
// already been called.
//
// Postcondition: lis is closed when this method returns.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = lis.Close()
		return nil
	}
	h.listener = lis
	h.mu.Unlock()

	h.logger.Info("health server listening",
		zap.String("addr", lis.Addr().String()),
	)
	if err := h.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serving health: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING for every service, then drains in-flight checks.
func (h *HealthServer) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	h.health.Shutdown()
	h.grpc.GracefulStop()
}

// Addr returns the listening address, or empty string if not yet listening.
func (h *HealthServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return ""
}

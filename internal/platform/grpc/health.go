// Package grpc hosts and probes the grpc.health.v1 endpoint that donations
// processes expose alongside their HTTP API.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer serves grpc.health.v1 on its own listener.
type HealthServer struct {
	listener   net.Listener
	grpcServer *gogrpc.Server
	health     *health.Server
	services   []string
}

// NewHealthServer listens on addr and registers the overall ("") status plus
// one status per named service, all starting as NOT_SERVING.
func NewHealthServer(addr string, services ...string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	grpcServer := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	h := &HealthServer{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		services:   append([]string{""}, services...),
	}
	h.SetServing(false)
	return h, nil
}

// Addr returns the listener address.
func (h *HealthServer) Addr() string {
	if h == nil || h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// SetServing flips every registered service between SERVING and NOT_SERVING.
func (h *HealthServer) SetServing(serving bool) {
	if h == nil || h.health == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	for _, service := range h.services {
		h.health.SetServingStatus(service, status)
	}
}

// Serve blocks until ctx is canceled or the gRPC server fails.
func (h *HealthServer) Serve(ctx context.Context) error {
	if h == nil {
		return errors.New("health server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log.Printf("health server listening at %v", h.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- h.grpcServer.Serve(h.listener)
	}()

	select {
	case <-ctx.Done():
		h.health.Shutdown()
		h.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve health: %w", err)
	}
}

// Close stops the server immediately.
func (h *HealthServer) Close() {
	if h == nil {
		return
	}
	if h.health != nil {
		h.health.Shutdown()
	}
	if h.grpcServer != nil {
		h.grpcServer.Stop()
	}
	if h.listener != nil {
		_ = h.listener.Close()
	}
}

package grpc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startHealthServer(t *testing.T, services ...string) *HealthServer {
	t.Helper()

	server, err := NewHealthServer("127.0.0.1:0", services...)
	if err != nil {
		t.Fatalf("new health server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return server
}

func TestProbeSucceedsWhenServing(t *testing.T) {
	server := startHealthServer(t, "donations")
	server.SetServing(true)

	if err := Probe(context.Background(), server.Addr(), "donations", 2*time.Second, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestProbeFailsWhenNotServing(t *testing.T) {
	server := startHealthServer(t)

	err := Probe(context.Background(), server.Addr(), "", 300*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected probe error")
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestProbeObservesTransitionToServing(t *testing.T) {
	server := startHealthServer(t)

	go func() {
		time.Sleep(200 * time.Millisecond)
		server.SetServing(true)
	}()

	if err := Probe(context.Background(), server.Addr(), "", 2*time.Second, nil); err != nil {
		t.Fatalf("probe after transition: %v", err)
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected nil connection error")
	}
}

func TestNilHealthServerIsSafe(t *testing.T) {
	var server *HealthServer
	server.SetServing(true)
	server.Close()
	if server.Addr() != "" {
		t.Fatal("expected empty addr")
	}
	if err := server.Serve(context.Background()); err == nil {
		t.Fatal("expected nil server error")
	}
}

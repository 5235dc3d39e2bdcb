package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/donations/internal/platform/grpc"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/payment"
	"github.com/louisbranch/donations/internal/services/donations/token"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:   "127.0.0.1:0",
		HealthAddr: "127.0.0.1:0",
		Backend:    BackendSQLite,
		DBPath:     filepath.Join(t.TempDir(), "data", "donations.db"),
		Token: token.Config{
			Secret: []byte("0123456789abcdef0123456789abcdef"),
			Issuer: "donations",
			TTL:    time.Hour,
		},
		Payment: payment.Config{
			UPIID:     "rootcoder@upi",
			PayeeName: "Root Coder Foundation",
			Currency:  "INR",
			QRSize:    128,
			Unit:      ledger.UnitWhole,
		},
		ShutdownTimeout: time.Second,
	}
}

func TestParseBackend(t *testing.T) {
	tests := map[string]Backend{
		"":         BackendSQLite,
		"sqlite":   BackendSQLite,
		"DynamoDB": BackendDynamoDB,
	}
	for raw, want := range tests {
		got, err := ParseBackend(raw)
		if err != nil || got != want {
			t.Fatalf("ParseBackend(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseBackend("mongo"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewServerValidation(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTPAddr = ""
	if _, err := NewServer(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing http address")
	}

	cfg = testConfig(t)
	cfg.Token.Secret = []byte("short")
	if _, err := NewServer(context.Background(), cfg); err == nil {
		t.Fatal("expected error for short token secret")
	}

	cfg = testConfig(t)
	cfg.Payment.UPIID = ""
	if _, err := NewServer(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing UPI id")
	}
}

func TestServeLifecycle(t *testing.T) {
	srv, err := NewServer(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	if err := platformgrpc.Probe(context.Background(), srv.HealthAddr(), HealthService, 5*time.Second, nil); err != nil {
		t.Fatalf("probe health: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	var body map[string]string
	err = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v %v", resp.StatusCode, body, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

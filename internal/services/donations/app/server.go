// Package server composes the donations stores, workflows and transports
// into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/donations/internal/platform/grpc"
	"github.com/louisbranch/donations/internal/platform/timeouts"
	"github.com/louisbranch/donations/internal/services/donations/accounts"
	httpapi "github.com/louisbranch/donations/internal/services/donations/api/http"
	"github.com/louisbranch/donations/internal/services/donations/payment"
	"github.com/louisbranch/donations/internal/services/donations/reporting"
	"github.com/louisbranch/donations/internal/services/donations/storage"
	"github.com/louisbranch/donations/internal/services/donations/storage/dynamodb"
	"github.com/louisbranch/donations/internal/services/donations/storage/sqlite"
	"github.com/louisbranch/donations/internal/services/donations/token"
)

// HealthService is the grpc.health.v1 service name reported by the process.
const HealthService = "donations"

// Backend names a ledger storage implementation.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendDynamoDB Backend = "dynamodb"
)

// ParseBackend returns the backend named by raw; empty means SQLite.
func ParseBackend(raw string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(raw))) {
	case "", BackendSQLite:
		return BackendSQLite, nil
	case BackendDynamoDB:
		return BackendDynamoDB, nil
	default:
		return "", fmt.Errorf("unknown ledger backend %q", raw)
	}
}

// Config defines the inputs for the donations process.
type Config struct {
	HTTPAddr       string
	HealthAddr     string
	Production     bool
	Backend        Backend
	DBPath         string
	DynamoTable    string
	DynamoEndpoint string
	Token          token.Config
	Payment        payment.Config

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the donations HTTP API and its health endpoint.
type Server struct {
	httpListener    net.Listener
	httpServer      *http.Server
	health          *platformgrpc.HealthServer
	sqlStore        *sqlite.Store
	shutdownTimeout time.Duration
}

// NewServer opens storage and binds both listeners.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		return nil, errors.New("health address is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	sqlStore, err := openSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := &Server{sqlStore: sqlStore, shutdownTimeout: cfg.ShutdownTimeout}

	ledgerStore, err := openLedger(ctx, cfg, sqlStore)
	if err != nil {
		s.Close()
		return nil, err
	}
	payments, err := payment.NewService(cfg.Payment, ledgerStore, nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init payment service: %w", err)
	}
	accountSvc, err := accounts.NewService(sqlStore, codec)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init account service: %w", err)
	}
	reports, err := reporting.NewEngine(ledgerStore)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init reporting engine: %w", err)
	}
	handler, err := httpapi.NewHandler(httpapi.Config{
		Payments:   payments,
		Accounts:   accountSvc,
		Reports:    reports,
		Verifier:   codec,
		Production: cfg.Production,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("init http api: %w", err)
	}

	s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	s.health, err = platformgrpc.NewHealthServer(cfg.HealthAddr, HealthService)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func openLedger(ctx context.Context, cfg Config, sqlStore *sqlite.Store) (storage.DonationStore, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return sqlStore, nil
	case BackendDynamoDB:
		store, err := dynamodb.Open(ctx, cfg.DynamoTable, cfg.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("open dynamodb ledger: %w", err)
		}
		log.Printf("ledger backend dynamodb table=%s", cfg.DynamoTable)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// Addr returns the bound HTTP address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the bound health address.
func (s *Server) HealthAddr() string {
	if s == nil {
		return ""
	}
	return s.health.Addr()
}

// Run creates and serves a donations server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init donations server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serve donations: %w", err)
	}
	return nil
}

// Serve runs HTTP and health until ctx ends. Health reports SERVING while
// the HTTP server accepts requests and NOT_SERVING once shutdown starts.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("donations server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	healthErr := make(chan error, 1)
	go func() {
		healthErr <- s.health.Serve(healthCtx)
	}()

	serveErr := make(chan error, 1)
	log.Printf("donations server listening on %s", s.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(s.httpListener)
	}()
	s.health.SetServing(true)

	var result error
	select {
	case <-ctx.Done():
		s.health.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			result = fmt.Errorf("shutdown http server: %w", err)
		}
		cancel()
	case err := <-serveErr:
		s.health.SetServing(false)
		if !errors.Is(err, http.ErrServerClosed) {
			result = fmt.Errorf("serve http: %w", err)
		}
	case err := <-healthErr:
		s.health.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		_ = s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err == nil {
			err = errors.New("health server stopped")
		}
		stopHealth()
		return err
	}

	stopHealth()
	if err := <-healthErr; err != nil && result == nil {
		result = err
	}
	return result
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.sqlStore != nil {
		if err := s.sqlStore.Close(); err != nil {
			log.Printf("close sqlite store: %v", err)
		}
	}
}

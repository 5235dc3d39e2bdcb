// Package donations parses donations command flags and composes the service
// entrypoint.
package donations

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/donations/internal/platform/cmd"
	"github.com/louisbranch/donations/internal/platform/config"
	server "github.com/louisbranch/donations/internal/services/donations/app"
	"github.com/louisbranch/donations/internal/services/donations/payment"
	"github.com/louisbranch/donations/internal/services/donations/token"
)

// Config holds donations command configuration. Token and payment settings
// are read by their own packages.
type Config struct {
	HTTPAddr       string `env:"DONATIONS_HTTP_ADDR"         envDefault:":8080"`
	HealthAddr     string `env:"DONATIONS_HEALTH_ADDR"       envDefault:":8081"`
	Environment    string `env:"DONATIONS_ENV"               envDefault:"development"`
	Backend        string `env:"DONATIONS_LEDGER_BACKEND"    envDefault:"sqlite"`
	DBPath         string `env:"DONATIONS_DB_PATH"           envDefault:"data/donations.db"`
	DynamoTable    string `env:"DONATIONS_DYNAMODB_TABLE"    envDefault:"donations"`
	DynamoEndpoint string `env:"DONATIONS_DYNAMODB_ENDPOINT"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "deployment stage (development or production)")
	fs.StringVar(&cfg.Backend, "ledger-backend", cfg.Backend, "donation ledger backend (sqlite or dynamodb)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.DynamoTable, "dynamodb-table", cfg.DynamoTable, "DynamoDB ledger table")
	fs.StringVar(&cfg.DynamoEndpoint, "dynamodb-endpoint", cfg.DynamoEndpoint, "DynamoDB endpoint override")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig resolves the full process configuration.
func (c Config) ServerConfig() (server.Config, error) {
	backend, err := server.ParseBackend(c.Backend)
	if err != nil {
		return server.Config{}, err
	}
	tokenCfg, err := token.LoadConfigFromEnv(time.Now)
	if err != nil {
		return server.Config{}, err
	}
	paymentCfg, err := payment.LoadConfigFromEnv()
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		HTTPAddr:       c.HTTPAddr,
		HealthAddr:     c.HealthAddr,
		Production:     config.ParseEnvironment(c.Environment).IsProduction(),
		Backend:        backend,
		DBPath:         c.DBPath,
		DynamoTable:    c.DynamoTable,
		DynamoEndpoint: c.DynamoEndpoint,
		Token:          tokenCfg,
		Payment:        paymentCfg,
	}, nil
}

// Run builds the donations app and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	serverCfg, err := cfg.ServerConfig()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDonations, func(ctx context.Context) error {
		if err := server.Run(ctx, serverCfg); err != nil {
			return fmt.Errorf("serve donations: %w", err)
		}
		return nil
	})
}

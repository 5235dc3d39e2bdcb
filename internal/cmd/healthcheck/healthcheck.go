// Package healthcheck probes a running donations process over grpc.health.v1.
package healthcheck

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/donations/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/donations/internal/platform/grpc"
	"github.com/louisbranch/donations/internal/platform/timeouts"
	server "github.com/louisbranch/donations/internal/services/donations/app"
)

// Config holds healthcheck configuration.
type Config struct {
	Addr    string        `env:"DONATIONS_HEALTHCHECK_ADDR"    envDefault:"localhost:8081"`
	Service string        `env:"DONATIONS_HEALTHCHECK_SERVICE"`
	Timeout time.Duration `env:"DONATIONS_HEALTHCHECK_TIMEOUT"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Service: server.HealthService, Timeout: timeouts.HealthDial}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "gRPC health address")
	fs.StringVar(&cfg.Service, "service", cfg.Service, "health service name")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "probe timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run returns nil once the service reports SERVING within the timeout.
func Run(ctx context.Context, cfg Config) error {
	return platformgrpc.Probe(ctx, cfg.Addr, cfg.Service, cfg.Timeout, nil)
}

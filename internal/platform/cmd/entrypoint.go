// Package cmd holds the startup plumbing shared by every donations binary.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/louisbranch/donations/internal/platform/config"
	"github.com/louisbranch/donations/internal/platform/otel"
	"github.com/louisbranch/donations/internal/platform/timeouts"
)

// Service identifiers used for telemetry resources and log prefixes.
const (
	ServiceDonations   = "donations"
	ServiceHealthcheck = "healthcheck"
	ServiceSeedAdmin   = "seed-admin"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// LogPrefix returns the bracketed log prefix for a service, e.g.
// "[SEED-ADMIN] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// RunWithTelemetry runs a long-lived donations command. Log lines carry the
// service prefix, ctx is canceled on SIGINT or SIGTERM, and traces configured
// from DONATIONS_OTEL_* are flushed after run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log.SetPrefix(LogPrefix(service))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := otel.LoadConfig()
	if err != nil {
		return err
	}
	shutdown, err := otel.Setup(ctx, service, telemetry)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryFlush)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()
	return run(ctx)
}

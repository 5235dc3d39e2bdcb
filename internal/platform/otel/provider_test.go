package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/donations/internal/platform/config"
	"github.com/louisbranch/donations/internal/platform/otel"
)

func TestLoadConfigDefaults(t *testing.T) {
	var cfg otel.Config
	if err := config.ParseEnvFrom(&cfg, map[string]string{}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Endpoint != "" || !cfg.Enabled || cfg.SampleRatio != 1 || cfg.Environment != "development" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("DONATIONS_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("DONATIONS_OTEL_ENABLED", "false")
	t.Setenv("DONATIONS_OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("DONATIONS_ENV", "production")

	cfg, err := otel.LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Endpoint != "http://collector:4318" || cfg.Enabled || cfg.SampleRatio != 0.25 || cfg.Environment != "production" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestSetupNoop(t *testing.T) {
	tests := map[string]otel.Config{
		"no endpoint": {Enabled: true, SampleRatio: 1},
		"disabled":    {Endpoint: "http://localhost:4318", Enabled: false, SampleRatio: 1},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			shutdown, err := otel.Setup(context.Background(), "test-service", cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}

func TestSetupRejectsSampleRatio(t *testing.T) {
	for _, ratio := range []float64{-0.1, 1.5} {
		if _, err := otel.Setup(context.Background(), "test-service", otel.Config{Enabled: true, SampleRatio: ratio}); err == nil {
			t.Fatalf("expected error for ratio %v", ratio)
		}
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 0.5, Environment: "production"}
	shutdown, err := otel.Setup(context.Background(), "test-service", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

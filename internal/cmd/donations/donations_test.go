package donations

import (
	"flag"
	"testing"

	server "github.com/louisbranch/donations/internal/services/donations/app"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("donations", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.HealthAddr != ":8081" {
		t.Fatalf("expected default health addr, got %q", cfg.HealthAddr)
	}
	if cfg.Backend != "sqlite" || cfg.DBPath != "data/donations.db" {
		t.Fatalf("unexpected storage defaults: %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("DONATIONS_HTTP_ADDR", "env-http")
	t.Setenv("DONATIONS_DB_PATH", "env.db")

	fs := flag.NewFlagSet("donations", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "flag-http", "-ledger-backend", "dynamodb"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-http" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.Backend != "dynamodb" {
		t.Fatalf("expected flag backend, got %q", cfg.Backend)
	}
}

func TestServerConfig(t *testing.T) {
	t.Setenv("DONATIONS_TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DONATIONS_UPI_ID", "rootcoder@upi")

	cfg := Config{HTTPAddr: ":1", HealthAddr: ":2", Environment: "production", Backend: "sqlite", DBPath: "x.db"}
	got, err := cfg.ServerConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if !got.Production || got.Backend != server.BackendSQLite {
		t.Fatalf("server config = %+v", got)
	}
	if got.Payment.UPIID != "rootcoder@upi" || got.Payment.Currency != "INR" {
		t.Fatalf("payment config = %+v", got.Payment)
	}

	cfg.Backend = "cassandra"
	if _, err := cfg.ServerConfig(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestServerConfigRequiresSecret(t *testing.T) {
	t.Setenv("DONATIONS_TOKEN_SECRET", "")
	t.Setenv("DONATIONS_UPI_ID", "rootcoder@upi")
	if _, err := (Config{Backend: "sqlite"}).ServerConfig(); err == nil {
		t.Fatal("expected error for missing token secret")
	}
}

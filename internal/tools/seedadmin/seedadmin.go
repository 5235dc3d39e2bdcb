// Package seedadmin creates the first administrative account.
package seedadmin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/louisbranch/donations/internal/platform/cmd"
	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/account"
	"github.com/louisbranch/donations/internal/services/donations/accounts"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/storage/sqlite"
)

// Config holds seed-admin configuration.
type Config struct {
	DBPath   string `env:"DONATIONS_DB_PATH"        envDefault:"data/donations.db"`
	Username string `env:"DONATIONS_ADMIN_USERNAME" envDefault:"admin"`
	Email    string `env:"DONATIONS_ADMIN_EMAIL"`
	Password string `env:"DONATIONS_ADMIN_PASSWORD"`
	Role     string `env:"DONATIONS_ADMIN_ROLE"     envDefault:"super-admin"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "admin username")
	fs.StringVar(&cfg.Email, "email", cfg.Email, "admin email")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "admin role (admin or super-admin)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run creates the account. An existing account with the same username or
// email is reported and left untouched.
func Run(ctx context.Context, cfg Config, issuer accounts.TokenIssuer, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	role, ok := identity.ParseRole(cfg.Role)
	if !ok || (role != identity.RoleAdmin && role != identity.RoleSuperAdmin) {
		return fmt.Errorf("role must be admin or super-admin, got %q", cfg.Role)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("database path is required")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	svc, err := accounts.NewService(store, issuer)
	if err != nil {
		return err
	}
	created, err := svc.Create(ctx, account.Registration{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
	}, role)
	if apperrors.IsKind(err, apperrors.KindAccountExists) {
		_, err = fmt.Fprintf(out, "account %s already exists\n", strings.TrimSpace(cfg.Username))
		return err
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	_, err = fmt.Fprintf(out, "created %s account %s (%s)\n", created.Role, created.Username, created.ID)
	return err
}

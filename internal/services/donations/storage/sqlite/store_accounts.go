package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/donations/internal/services/donations/account"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

const accountColumns = `id, username, email, password_hash, role, last_login_at, created_at, updated_at`

func scanAccount(row rowScanner) (account.Account, error) {
	var a account.Account
	var role string
	var lastLogin sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &lastLogin, &createdAt, &updatedAt); err != nil {
		return account.Account{}, err
	}
	a.Role = identity.Role(role)
	if lastLogin.Valid {
		at := fromMillis(lastLogin.Int64)
		a.LastLoginAt = &at
	}
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// CreateAccount inserts one account.
func (s *Store) CreateAccount(ctx context.Context, a account.Account) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if len(a.PasswordHash) == 0 {
		return fmt.Errorf("password hash is required")
	}
	createdAt := a.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := a.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO accounts (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		strings.TrimSpace(a.Username),
		strings.ToLower(strings.TrimSpace(a.Email)),
		a.PasswordHash,
		string(a.Role),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccountByLogin finds an account case-insensitively. A login containing
// @ matches the email column only, anything else the username column.
func (s *Store) GetAccountByLogin(ctx context.Context, login string) (account.Account, error) {
	if err := s.ready(ctx); err != nil {
		return account.Account{}, err
	}
	login = strings.TrimSpace(login)
	if login == "" {
		return account.Account{}, storage.ErrNotFound
	}
	column := "username"
	if account.IsEmailLogin(login) {
		column = "email"
	}
	a, err := scanAccount(s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ? COLLATE NOCASE`,
		login,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, storage.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account by login: %w", err)
	}
	return a, nil
}

// GetAccount returns one account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	if err := s.ready(ctx); err != nil {
		return account.Account{}, err
	}
	a, err := scanAccount(s.sqlDB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, storage.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// TouchAccountLogin stamps the last successful login.
func (s *Store) TouchAccountLogin(ctx context.Context, id string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE accounts SET last_login_at = ?1, updated_at = ?1 WHERE id = ?2`,
		toMillis(at),
		id,
	)
	if err != nil {
		return fmt.Errorf("touch account login: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

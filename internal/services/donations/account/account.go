// Package account defines the login account used to issue bearer tokens.
package account

import (
	"net/mail"
	"strings"
	"time"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/identity"
)

// Account is a donor or administrator able to sign in.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         identity.Role
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registration is the input for creating an account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Password length bounds. bcrypt ignores input past MaxPasswordBytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// Normalize trims identifiers and lowercases the email.
func (r Registration) Normalize() Registration {
	return Registration{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: r.Password,
	}
}

// Validate reports every invalid field.
func (r Registration) Validate() error {
	var fields []apperrors.FieldError
	if n := len(r.Username); n < 3 || n > 64 {
		fields = append(fields, apperrors.FieldError{Field: "username", Message: "must be between 3 and 64 characters"})
	} else if IsEmailLogin(r.Username) {
		fields = append(fields, apperrors.FieldError{Field: "username", Message: "must not contain @"})
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || r.Email == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	switch {
	case len(r.Password) < MinPasswordLength:
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at least 8 characters"})
	case len(r.Password) > MaxPasswordBytes:
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at most 72 bytes"})
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields...)
	}
	return nil
}

// IsEmailLogin reports whether a login identifier names an email address.
// Usernames never contain @, so such logins match on email only.
func IsEmailLogin(login string) bool {
	return strings.Contains(login, "@")
}

// IsAdmin reports whether the account may use the admin login.
func (a Account) IsAdmin() bool {
	return a.Role == identity.RoleAdmin || a.Role == identity.RoleSuperAdmin
}

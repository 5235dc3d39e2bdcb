// Package token issues and verifies signed bearer tokens.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/identity"
)

// MinSecretBytes is the shortest accepted HMAC secret.
const MinSecretBytes = 32

// EnvSecret names the variable holding the HMAC secret.
const EnvSecret = "DONATIONS_TOKEN_SECRET"

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Secret string        `env:"DONATIONS_TOKEN_SECRET"`
	Issuer string        `env:"DONATIONS_TOKEN_ISSUER" envDefault:"donations"`
	TTL    time.Duration `env:"DONATIONS_TOKEN_TTL"    envDefault:"24h"`
}

// Config defines how tokens are signed and verified.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// LoadConfigFromEnv reads token configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("DONATIONS_TOKEN_SECRET is required")
	}
	if len(secret) < MinSecretBytes {
		return Config{}, fmt.Errorf("DONATIONS_TOKEN_SECRET must be at least %d bytes", MinSecretBytes)
	}
	if raw.TTL <= 0 {
		return Config{}, fmt.Errorf("token ttl must be positive")
	}
	return Config{
		Secret: []byte(secret),
		Issuer: strings.TrimSpace(raw.Issuer),
		TTL:    raw.TTL,
		Now:    now,
	}, nil
}

// claims is the internal claims type used for JWT encoding.
type claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// Codec signs and verifies HS256 bearer tokens.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec from cfg.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretBytes)
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: cfg.Secret, issuer: cfg.Issuer, ttl: cfg.TTL, now: now}, nil
}

// DefaultTTL returns the configured token lifetime.
func (c *Codec) DefaultTTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject. A non-positive ttl uses the
// configured default.
func (c *Codec) Issue(subjectID string, role identity.Role, email string, ttl time.Duration) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", errors.New("token subject is required")
	}
	if !role.Valid() || role == identity.RoleGuest {
		return "", fmt.Errorf("token role %q is not issuable", role)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := c.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  string(role),
		Email: strings.TrimSpace(email),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, issuer and expiry and returns the principal.
func (c *Codec) Verify(raw string) (identity.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identity.Principal{}, invalid("token is required")
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return identity.Principal{}, mapJWTError(err)
	}

	if parsed.Issuer != c.issuer {
		return identity.Principal{}, invalid("token issuer mismatch")
	}
	if parsed.ExpiresAt == nil {
		return identity.Principal{}, invalid("token exp is required")
	}
	now := c.now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return identity.Principal{}, invalid("token is expired")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return identity.Principal{}, invalid("token subject is required")
	}
	role := identity.Role(parsed.Role)
	if !role.Valid() || role == identity.RoleGuest {
		return identity.Principal{}, invalid("token role is invalid")
	}

	return identity.Principal{
		SubjectID: parsed.Subject,
		Role:      role,
		Email:     parsed.Email,
	}, nil
}

func invalid(message string) error {
	return apperrors.New(apperrors.KindInvalidToken, message)
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.Wrap(apperrors.KindInvalidToken, "token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.KindInvalidToken, "token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.KindInvalidToken, "token is malformed", err)
}

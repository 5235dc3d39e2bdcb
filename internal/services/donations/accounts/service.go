// Package accounts registers login accounts and exchanges credentials for
// bearer tokens.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/platform/id"
	"github.com/louisbranch/donations/internal/services/donations/account"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

// TokenIssuer signs bearer tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(subjectID string, role identity.Role, email string, ttl time.Duration) (string, error)
}

// Session is the result of a successful register or login.
type Session struct {
	Token   string      `json:"token"`
	Account AccountView `json:"user"`
}

// AccountView is the public projection of an account.
type AccountView struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Role     identity.Role `json:"role"`
}

func viewOf(a account.Account) AccountView {
	return AccountView{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

// Service implements account registration and login.
type Service struct {
	store     storage.AccountStore
	issuer    TokenIssuer
	now       func() time.Time
	idFunc    func() (string, error)
	hashCost  int
	dummyHash []byte
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithIDGenerator overrides account id generation.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.idFunc = fn }
}

// NewService builds the account service.
func NewService(store storage.AccountStore, issuer TokenIssuer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{
		store:    store,
		issuer:   issuer,
		now:      time.Now,
		idFunc:   id.NewID,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Compared against when the login is unknown so both paths pay the
	// bcrypt cost.
	dummy, err := bcrypt.GenerateFromPassword([]byte("unknown-account"), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates a user account and signs it in.
func (s *Service) Register(ctx context.Context, reg account.Registration) (Session, error) {
	created, err := s.Create(ctx, reg, identity.RoleUser)
	if err != nil {
		return Session{}, err
	}
	return s.session(created)
}

// Create stores a new account with the given role.
func (s *Service) Create(ctx context.Context, reg account.Registration, role identity.Role) (account.Account, error) {
	reg = reg.Normalize()
	if err := reg.Validate(); err != nil {
		return account.Account{}, err
	}
	if !role.Valid() || role == identity.RoleGuest {
		return account.Account{}, apperrors.Validation(apperrors.FieldError{Field: "role", Message: "must be user, admin or super-admin"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return account.Account{}, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}
	accountID, err := s.idFunc()
	if err != nil {
		return account.Account{}, apperrors.Internal(fmt.Errorf("generate account id: %w", err))
	}
	now := s.now().UTC()
	a := account.Account{
		ID:           accountID,
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return account.Account{}, apperrors.New(apperrors.KindAccountExists, "User already exists")
		}
		return account.Account{}, apperrors.Internal(err)
	}
	return a, nil
}

// Login exchanges a username or email and password for a token.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	a, err := s.authenticate(ctx, login, password)
	if err != nil {
		return Session{}, err
	}
	return s.session(a)
}

// AdminLogin is Login restricted to admin and super-admin accounts.
func (s *Service) AdminLogin(ctx context.Context, login, password string) (Session, error) {
	a, err := s.authenticate(ctx, login, password)
	if err != nil {
		return Session{}, err
	}
	if !a.IsAdmin() {
		return Session{}, apperrors.New(apperrors.KindForbidden, "Not authorized as admin")
	}
	return s.session(a)
}

func (s *Service) authenticate(ctx context.Context, login, password string) (account.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		var fields []apperrors.FieldError
		if login == "" {
			fields = append(fields, apperrors.FieldError{Field: "email", Message: "is required"})
		}
		if password == "" {
			fields = append(fields, apperrors.FieldError{Field: "password", Message: "is required"})
		}
		return account.Account{}, apperrors.Validation(fields...)
	}
	invalid := apperrors.New(apperrors.KindUnauthenticated, "Invalid email or password")

	a, err := s.store.GetAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return account.Account{}, invalid
		}
		return account.Account{}, apperrors.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return account.Account{}, invalid
	}
	now := s.now().UTC()
	if err := s.store.TouchAccountLogin(ctx, a.ID, now); err != nil {
		return account.Account{}, apperrors.Internal(err)
	}
	a.LastLoginAt = &now
	return a, nil
}

func (s *Service) session(a account.Account) (Session, error) {
	signed, err := s.issuer.Issue(a.ID, a.Role, a.Email, 0)
	if err != nil {
		return Session{}, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return Session{Token: signed, Account: viewOf(a)}, nil
}

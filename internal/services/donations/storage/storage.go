package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/donations/internal/services/donations/account"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidTransition indicates the record is not in a state that allows
	// the requested status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DonationFilter narrows listing and export queries. Zero fields match all.
type DonationFilter struct {
	Status ledger.Status
	Start  time.Time
	End    time.Time
}

// DonationPage stores one offset page of donations plus the filtered total.
type DonationPage struct {
	Donations []ledger.Donation
	Total     int64
}

// DonationStore persists donation records.
type DonationStore interface {
	// CreateDonation inserts a record atomically; a reused transaction id
	// returns ErrAlreadyExists.
	CreateDonation(ctx context.Context, donation ledger.Donation) error
	GetDonation(ctx context.Context, id string) (ledger.Donation, error)
	// TransitionDonation moves a pending record to status. Records not in
	// pending return ErrInvalidTransition; unknown ids return ErrNotFound.
	TransitionDonation(ctx context.Context, id string, status ledger.Status, at time.Time) (ledger.Donation, error)
	// ListDonations returns records newest first.
	ListDonations(ctx context.Context, filter DonationFilter, limit, offset int) (DonationPage, error)
	// ExportDonations returns every matching record newest first.
	ExportDonations(ctx context.Context, filter DonationFilter) ([]ledger.Donation, error)
	DonationStatistics(ctx context.Context) (ledger.Statistics, error)
}

// AccountStore persists login accounts.
type AccountStore interface {
	// CreateAccount returns ErrAlreadyExists when username or email is taken.
	CreateAccount(ctx context.Context, a account.Account) error
	GetAccountByLogin(ctx context.Context, login string) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
	TouchAccountLogin(ctx context.Context, id string, at time.Time) error
}

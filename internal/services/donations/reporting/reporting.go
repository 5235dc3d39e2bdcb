// Package reporting answers the read-only administrative queries over the
// donation ledger.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/platform/pagination"
	"github.com/louisbranch/donations/internal/services/donations/access"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

// AdminRoles may call every reporting operation.
var AdminRoles = []identity.Role{identity.RoleAdmin, identity.RoleSuperAdmin}

// DefaultPageConfig clamps listing pages.
var DefaultPageConfig = pagination.Config{DefaultLimit: 10, MaxLimit: 100}

// ListQuery holds raw listing parameters.
type ListQuery struct {
	Status string
	Page   string
	Limit  string
}

// ListResult is one listing page.
type ListResult struct {
	Items       []ledger.Donation `json:"donations"`
	Total       int64             `json:"total"`
	PageCount   int               `json:"pages"`
	CurrentPage int               `json:"currentPage"`
}

// ExportQuery holds raw export parameters. Start and End accept RFC 3339
// timestamps or YYYY-MM-DD dates; a date-only End covers that whole day.
type ExportQuery struct {
	Start  string
	End    string
	Status string
}

// ExportRecord is a donation without internal concurrency metadata.
type ExportRecord struct {
	ID            string               `json:"id"`
	Amount        int64                `json:"amount"`
	TransactionID string               `json:"transactionId"`
	Status        ledger.Status        `json:"status"`
	PaymentMethod ledger.PaymentMethod `json:"paymentMethod"`
	Donor         *ledger.Donor        `json:"donor,omitempty"`
	Purpose       string               `json:"purpose,omitempty"`
	Message       string               `json:"message,omitempty"`
	Anonymous     bool                 `json:"anonymous"`
	OwnerUserID   string               `json:"ownerUserId,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func exportRecord(d ledger.Donation) ExportRecord {
	return ExportRecord{
		ID:            d.ID,
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		Status:        d.Status,
		PaymentMethod: d.PaymentMethod,
		Donor:         d.Donor,
		Purpose:       d.Purpose,
		Message:       d.Message,
		Anonymous:     d.Anonymous,
		OwnerUserID:   d.OwnerUserID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Engine computes snapshots, listings and exports.
type Engine struct {
	store storage.DonationStore
	pages pagination.Config
}

// NewEngine builds an engine over store.
func NewEngine(store storage.DonationStore) (*Engine, error) {
	if store == nil {
		return nil, errors.New("donation store is required")
	}
	return &Engine{store: store, pages: DefaultPageConfig}, nil
}

// Snapshot aggregates the whole ledger.
func (e *Engine) Snapshot(ctx context.Context, principal identity.Principal) (ledger.Statistics, error) {
	if err := access.Require(principal, AdminRoles...); err != nil {
		return ledger.Statistics{}, err
	}
	stats, err := e.store.DonationStatistics(ctx)
	if err != nil {
		return ledger.Statistics{}, apperrors.Internal(fmt.Errorf("donation statistics: %w", err))
	}
	return stats, nil
}

// List returns one page of donations, newest first.
func (e *Engine) List(ctx context.Context, principal identity.Principal, q ListQuery) (ListResult, error) {
	if err := access.Require(principal, AdminRoles...); err != nil {
		return ListResult{}, err
	}
	status, err := parseStatusFilter(q.Status)
	if err != nil {
		return ListResult{}, err
	}
	req := pagination.Clamp(q.Page, q.Limit, e.pages)
	page, err := e.store.ListDonations(ctx, storage.DonationFilter{Status: status}, req.Limit, req.Offset())
	if err != nil {
		return ListResult{}, apperrors.Internal(fmt.Errorf("list donations: %w", err))
	}
	return ListResult{
		Items:       page.Donations,
		Total:       page.Total,
		PageCount:   req.PageCount(int(page.Total)),
		CurrentPage: req.Page,
	}, nil
}

// Export returns every donation created within [start, end].
func (e *Engine) Export(ctx context.Context, principal identity.Principal, q ExportQuery) ([]ExportRecord, error) {
	if err := access.Require(principal, AdminRoles...); err != nil {
		return nil, err
	}
	var fields []apperrors.FieldError
	start, err := parseBound(q.Start, false)
	if err != nil {
		fields = append(fields, apperrors.FieldError{Field: "startDate", Message: err.Error()})
	}
	end, err := parseBound(q.End, true)
	if err != nil {
		fields = append(fields, apperrors.FieldError{Field: "endDate", Message: err.Error()})
	}
	status, statusErr := parseStatusFilter(q.Status)
	if statusErr != nil {
		fields = append(fields, apperrors.As(statusErr).Fields...)
	}
	if len(fields) == 0 && !start.IsZero() && !end.IsZero() && end.Before(start) {
		fields = append(fields, apperrors.FieldError{Field: "endDate", Message: "must not be before startDate"})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields...)
	}

	donations, err := e.store.ExportDonations(ctx, storage.DonationFilter{Status: status, Start: start, End: end})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("export donations: %w", err))
	}
	out := make([]ExportRecord, 0, len(donations))
	for _, d := range donations {
		out = append(out, exportRecord(d))
	}
	return out, nil
}

// Get returns one donation.
func (e *Engine) Get(ctx context.Context, principal identity.Principal, donationID string) (ledger.Donation, error) {
	if err := access.Require(principal, AdminRoles...); err != nil {
		return ledger.Donation{}, err
	}
	d, err := e.store.GetDonation(ctx, strings.TrimSpace(donationID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ledger.Donation{}, apperrors.New(apperrors.KindNotFound, "Donation not found")
		}
		return ledger.Donation{}, apperrors.Internal(fmt.Errorf("get donation: %w", err))
	}
	return d, nil
}

func parseStatusFilter(raw string) (ledger.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	status, ok := ledger.ParseStatus(raw)
	if !ok {
		return "", apperrors.Validation(apperrors.FieldError{Field: "status", Message: "must be pending, completed or failed"})
	}
	return status, nil
}

const dateLayout = "2006-01-02"

// parseBound parses an export bound. Date-only end bounds extend to the last
// millisecond of that UTC day.
func parseBound(raw string, end bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.New("must be an RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if end {
		return day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
	}
	return day, nil
}

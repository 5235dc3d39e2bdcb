// Package payment generates UPI payment intents and records verified
// donations in the ledger.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/platform/id"
	"github.com/louisbranch/donations/internal/services/donations/access"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

const tracerName = "github.com/louisbranch/donations/internal/services/donations/payment"

// Intent is a renderable payment request. It is never persisted.
type Intent struct {
	QRCode     string      `json:"qrCode"`
	Amount     json.Number `json:"amount"`
	PaymentURI string      `json:"upiUrl"`
}

// VerifyInput is the caller's assertion that a payment settled.
type VerifyInput struct {
	Amount        json.RawMessage `json:"amount"`
	TransactionID string          `json:"transactionId"`
	Purpose       string          `json:"purpose,omitempty"`
	Message       string          `json:"message,omitempty"`
	Donor         *ledger.Donor   `json:"donor,omitempty"`
}

// Service implements the payment intent workflow.
type Service struct {
	cfg      Config
	store    storage.DonationStore
	renderer Renderer
	now      func() time.Time
	idFunc   func() (string, error)
	tracer   trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides donation id generation.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.idFunc = fn }
}

// NewService builds the workflow. A nil renderer uses QRCodeRenderer.
func NewService(cfg Config, store storage.DonationStore, renderer Renderer, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("donation store is required")
	}
	if renderer == nil {
		renderer = QRCodeRenderer{}
	}
	s := &Service{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		now:      time.Now,
		idFunc:   id.NewID,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Currency returns the configured currency code.
func (s *Service) Currency() string {
	return s.cfg.Currency
}

// GenerateIntent validates amount and renders its payment QR. It never
// touches the ledger.
func (s *Service) GenerateIntent(ctx context.Context, rawAmount json.RawMessage) (Intent, error) {
	ctx, span := s.tracer.Start(ctx, "payment.GenerateIntent")
	defer span.End()

	amount, err := ledger.ParseAmount(rawAmount, s.cfg.Unit)
	if err != nil {
		return Intent{}, fail(span, err)
	}
	formatted := ledger.FormatAmount(amount, s.cfg.Unit)
	span.SetAttributes(attribute.Int64("donation.amount", amount))

	uri := BuildUPIURI(s.cfg, formatted)
	png, err := s.renderer.Render(ctx, uri, s.cfg.QRSize)
	if err != nil {
		return Intent{}, fail(span, apperrors.Wrap(apperrors.KindRenderingFailed, "Failed to generate QR code. Please try again.", err))
	}
	return Intent{
		QRCode:     pngDataURL(png),
		Amount:     json.Number(formatted),
		PaymentURI: uri,
	}, nil
}

// VerifyAndRecord records a settled payment for an authenticated principal.
// The transaction id is the de-duplication key; reuse fails with
// DuplicateTransaction.
func (s *Service) VerifyAndRecord(ctx context.Context, principal identity.Principal, in VerifyInput) (ledger.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "payment.VerifyAndRecord")
	defer span.End()

	if !principal.Authenticated() {
		return ledger.Donation{}, fail(span, apperrors.New(apperrors.KindUnauthenticated, "Authentication required"))
	}
	amount, err := ledger.ParseAmount(in.Amount, s.cfg.Unit)
	if err != nil {
		return ledger.Donation{}, fail(span, err)
	}
	transactionID := strings.TrimSpace(in.TransactionID)
	if transactionID == "" {
		return ledger.Donation{}, fail(span, apperrors.New(apperrors.KindMissingTransactionID, "Transaction ID is required"))
	}
	span.SetAttributes(attribute.Int64("donation.amount", amount))

	donationID, err := s.idFunc()
	if err != nil {
		return ledger.Donation{}, fail(span, apperrors.Internal(fmt.Errorf("generate donation id: %w", err)))
	}
	now := s.now().UTC()
	donation := ledger.Donation{
		ID:            donationID,
		Amount:        amount,
		TransactionID: transactionID,
		Status:        ledger.StatusCompleted,
		PaymentMethod: ledger.MethodUPI,
		Purpose:       strings.TrimSpace(in.Purpose),
		Message:       strings.TrimSpace(in.Message),
		Anonymous:     true,
		OwnerUserID:   principal.SubjectID,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Donor != nil {
		if donor := in.Donor.Normalize(); !donor.Empty() {
			donation.Donor = &donor
			donation.Anonymous = false
		}
	}

	if err := s.store.CreateDonation(ctx, donation); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ledger.Donation{}, fail(span, apperrors.New(apperrors.KindDuplicateTransaction, "Payment with this transaction ID was already recorded"))
		}
		if apperrors.As(err).Kind != apperrors.KindInternal {
			return ledger.Donation{}, fail(span, err)
		}
		return ledger.Donation{}, fail(span, apperrors.Internal(fmt.Errorf("record donation: %w", err)))
	}
	span.SetAttributes(attribute.String("donation.id", donation.ID))
	return donation, nil
}

// CorrectStatus is the administrative override of a pending donation's
// status.
func (s *Service) CorrectStatus(ctx context.Context, principal identity.Principal, donationID, rawStatus string) (ledger.Donation, error) {
	ctx, span := s.tracer.Start(ctx, "payment.CorrectStatus")
	defer span.End()

	if err := access.Require(principal, identity.RoleAdmin, identity.RoleSuperAdmin); err != nil {
		return ledger.Donation{}, fail(span, err)
	}
	status, ok := ledger.ParseStatus(rawStatus)
	if !ok {
		return ledger.Donation{}, fail(span, apperrors.Validation(apperrors.FieldError{
			Field:   "status",
			Message: "must be pending, completed or failed",
		}))
	}
	updated, err := s.store.TransitionDonation(ctx, strings.TrimSpace(donationID), status, s.now().UTC())
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, storage.ErrNotFound):
		return ledger.Donation{}, fail(span, apperrors.New(apperrors.KindNotFound, "Donation not found"))
	case errors.Is(err, storage.ErrInvalidTransition):
		return ledger.Donation{}, fail(span, apperrors.New(apperrors.KindInvalidStatusTransition,
			fmt.Sprintf("Only pending donations can change status, and only to completed or failed (requested %s)", status)))
	default:
		return ledger.Donation{}, fail(span, apperrors.Internal(fmt.Errorf("transition donation: %w", err)))
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperrors.KindOf(err)))
	return err
}

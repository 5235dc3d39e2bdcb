// Package ledger defines the donation record and its lifecycle rules.
package ledger

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a donation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus returns the status named by value.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusPending, StatusCompleted, StatusFailed:
		return status, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from may move to to. Only pending records
// move, and only to a terminal state.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// PaymentMethod is how the donor paid.
type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodNetbanking PaymentMethod = "netbanking"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodCard, MethodNetbanking:
		return true
	default:
		return false
	}
}

// Donor is optional contact information supplied by the payer.
type Donor struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Empty reports whether no donor field is set.
func (d Donor) Empty() bool {
	return d.Name == "" && d.Email == "" && d.Phone == ""
}

// Normalize trims every field.
func (d Donor) Normalize() Donor {
	return Donor{
		Name:  strings.TrimSpace(d.Name),
		Email: strings.TrimSpace(d.Email),
		Phone: strings.TrimSpace(d.Phone),
	}
}

// Donation is one payment attempt and its lifecycle state.
type Donation struct {
	ID            string        `json:"id"`
	Amount        int64         `json:"amount"`
	TransactionID string        `json:"transactionId"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Donor         *Donor        `json:"donor,omitempty"`
	Purpose       string        `json:"purpose,omitempty"`
	Message       string        `json:"message,omitempty"`
	Anonymous     bool          `json:"anonymous"`
	OwnerUserID   string        `json:"ownerUserId,omitempty"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Validate checks the invariants every stored record must satisfy.
func (d Donation) Validate() error {
	var fields []fieldProblem
	if strings.TrimSpace(d.ID) == "" {
		fields = append(fields, fieldProblem{"id", "is required"})
	}
	if d.Amount <= 0 {
		fields = append(fields, fieldProblem{"amount", "must be greater than zero"})
	}
	if strings.TrimSpace(d.TransactionID) == "" {
		fields = append(fields, fieldProblem{"transactionId", "is required"})
	}
	if _, ok := ParseStatus(string(d.Status)); !ok {
		fields = append(fields, fieldProblem{"status", "must be pending, completed or failed"})
	}
	if !d.PaymentMethod.Valid() {
		fields = append(fields, fieldProblem{"paymentMethod", "must be upi, card or netbanking"})
	}
	return validationError(fields)
}

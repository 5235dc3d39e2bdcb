package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
)

// Unit is the unit amounts are stored in.
type Unit string

const (
	// UnitWhole stores whole currency units and rejects fractions.
	UnitWhole Unit = "whole"
	// UnitMinor stores hundredths, accepting up to two decimal places.
	UnitMinor Unit = "minor"
)

// ParseUnit returns the unit named by value.
func ParseUnit(value string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(value))) {
	case "", UnitWhole:
		return UnitWhole, nil
	case UnitMinor:
		return UnitMinor, nil
	default:
		return "", fmt.Errorf("unknown amount unit %q", value)
	}
}

var hundred = decimal.NewFromInt(100)

// ParseAmount coerces a JSON number or numeric string into a stored amount.
// Non-numeric, non-positive or over-precise values fail with InvalidAmount.
func ParseAmount(raw json.RawMessage, unit Unit) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, invalidAmount("amount is required")
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, invalidAmount("amount must be a number")
		}
	} else {
		var number json.Number
		if err := json.Unmarshal(raw, &number); err != nil {
			return 0, invalidAmount("amount must be a number")
		}
		text = number.String()
	}
	return ParseAmountString(text, unit)
}

// ParseAmountString is ParseAmount for an already unquoted value.
func ParseAmountString(text string, unit Unit) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, invalidAmount("amount is required")
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, invalidAmount("amount must be a number")
	}
	if !value.IsPositive() {
		return 0, invalidAmount("amount must be greater than zero")
	}
	if unit == UnitMinor {
		value = value.Mul(hundred)
	}
	if !value.Equal(value.Truncate(0)) {
		if unit == UnitMinor {
			return 0, invalidAmount("amount supports at most two decimal places")
		}
		return 0, invalidAmount("amount must be a whole number")
	}
	if !value.BigInt().IsInt64() {
		return 0, invalidAmount("amount is too large")
	}
	return value.IntPart(), nil
}

// FormatAmount renders a stored amount in currency units.
func FormatAmount(amount int64, unit Unit) string {
	if unit == UnitMinor {
		return decimal.New(amount, -2).StringFixed(2)
	}
	return decimal.NewFromInt(amount).String()
}

func invalidAmount(message string) error {
	return apperrors.New(apperrors.KindInvalidAmount, message)
}

package ledger

import apperrors "github.com/louisbranch/donations/internal/platform/errors"

type fieldProblem struct {
	field   string
	message string
}

func validationError(problems []fieldProblem) error {
	if len(problems) == 0 {
		return nil
	}
	fields := make([]apperrors.FieldError, 0, len(problems))
	for _, p := range problems {
		fields = append(fields, apperrors.FieldError{Field: p.field, Message: p.message})
	}
	return apperrors.Validation(fields...)
}

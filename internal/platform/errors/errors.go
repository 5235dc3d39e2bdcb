package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// FieldError is one field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the domain error type with a kind and optional field details.
type Error struct {
	Kind    Kind         // Machine-readable error kind
	Message string       // Human message returned to callers
	Fields  []FieldError // Populated for KindValidationFailed
	Cause   error        // Wrapped underlying error
	stack   []uintptr
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Stack renders the captured call stack, one frame per line.
func (e *Error) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(e.stack)
	var out []string
	for {
		frame, more := frames.Next()
		out = append(out, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return out
}

// New creates a domain error with a kind and message.
func New(kind Kind, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = kind.DefaultMessage()
	}
	return &Error{Kind: kind, Message: message, stack: callers()}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	err := New(kind, message)
	err.Cause = cause
	return err
}

// Validation creates a KindValidationFailed error listing every failed field.
func Validation(fields ...FieldError) *Error {
	err := New(KindValidationFailed, "")
	err.Fields = fields
	return err
}

// Internal wraps an unexpected failure as KindInternal.
func Internal(cause error) *Error {
	return Wrap(KindInternal, "", cause)
}

// As returns the first *Error in err's chain. Unclassified errors are
// reported as KindInternal wrapping err.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr
	}
	return &Error{Kind: KindInternal, Message: KindInternal.DefaultMessage(), Cause: err}
}

// KindOf reports the kind of err, KindInternal for unclassified errors and
// the empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func callers() []uintptr {
	pcs := make([]uintptr, 32)
	// Skip runtime.Callers, callers and the constructor.
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

// Package access enforces per-route role requirements.
package access

import (
	"fmt"
	"net/http"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/identity"
)

// Require fails with Forbidden unless the principal's role is one of
// allowed. An empty allowed set denies every principal.
func Require(principal identity.Principal, allowed ...identity.Role) error {
	for _, role := range allowed {
		if principal.Role == role && role.Valid() {
			return nil
		}
	}
	return apperrors.New(apperrors.KindForbidden, fmt.Sprintf("role %q is not permitted", roleName(principal.Role)))
}

// Guard is route middleware bound to an error writer.
type Guard struct {
	writeErr func(w http.ResponseWriter, err error)
}

// NewGuard builds a guard. A nil writer uses the default renderer.
func NewGuard(writeErr func(w http.ResponseWriter, err error)) Guard {
	if writeErr == nil {
		writeErr = apperrors.Renderer{}.Write
	}
	return Guard{writeErr: writeErr}
}

// Middleware rejects requests whose context principal is not in allowed.
func (g Guard) Middleware(allowed ...identity.Role) func(http.Handler) http.Handler {
	roles := append([]identity.Role(nil), allowed...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Require(identity.FromContext(r.Context()), roles...); err != nil {
				g.writeErr(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleName(role identity.Role) string {
	if role == "" {
		return string(identity.RoleGuest)
	}
	return string(role)
}

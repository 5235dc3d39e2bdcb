package identity

import (
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
)

// Policy decides what happens when a request carries no usable credential.
type Policy int

const (
	// Strict rejects missing or invalid credentials with Unauthenticated.
	Strict Policy = iota
	// Permissive degrades missing or invalid credentials to the anonymous
	// principal.
	Permissive
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Permissive:
		return "permissive"
	default:
		return "unknown"
	}
}

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(token string) (Principal, error)
}

// ErrorWriter renders a resolution failure.
type ErrorWriter func(w http.ResponseWriter, err error)

// Resolver resolves Authorization headers under a named policy.
type Resolver struct {
	verifier Verifier
	writeErr ErrorWriter
}

// NewResolver builds a resolver. writeErr renders Strict rejections.
func NewResolver(verifier Verifier, writeErr ErrorWriter) *Resolver {
	if writeErr == nil {
		writeErr = apperrors.Renderer{}.Write
	}
	return &Resolver{verifier: verifier, writeErr: writeErr}
}

// Resolve produces the principal for an Authorization header value.
func (r *Resolver) Resolve(header string, policy Policy) (Principal, error) {
	token, ok := bearerToken(header)
	if !ok {
		return r.reject(policy, apperrors.New(apperrors.KindUnauthenticated, "Authentication required"))
	}
	if r == nil || r.verifier == nil {
		return r.reject(policy, apperrors.New(apperrors.KindUnauthenticated, "Authentication unavailable"))
	}
	principal, err := r.verifier.Verify(token)
	if err != nil {
		return r.reject(policy, apperrors.Wrap(apperrors.KindUnauthenticated, "Invalid or expired token", err))
	}
	if !principal.Authenticated() {
		return r.reject(policy, apperrors.New(apperrors.KindUnauthenticated, "Invalid or expired token"))
	}
	return principal, nil
}

func (r *Resolver) reject(policy Policy, err error) (Principal, error) {
	if policy == Permissive {
		return Anonymous(), nil
	}
	return Principal{}, err
}

// Middleware resolves the principal and threads it through the request
// context. Strict rejections stop the chain.
func (r *Resolver) Middleware(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			principal, err := r.Resolve(req.Header.Get("Authorization"), policy)
			if err != nil {
				r.writeErr(w, err)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithPrincipal(req.Context(), principal)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

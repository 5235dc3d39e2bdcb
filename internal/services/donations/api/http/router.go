package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/platform/timeouts"
	"github.com/louisbranch/donations/internal/services/donations/access"
	"github.com/louisbranch/donations/internal/services/donations/accounts"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/payment"
	"github.com/louisbranch/donations/internal/services/donations/reporting"
)

const maxBodyBytes = 1 << 20

// Config wires the API to its workflows.
type Config struct {
	Payments   *payment.Service
	Accounts   *accounts.Service
	Reports    *reporting.Engine
	Verifier   identity.Verifier
	Production bool
	// Logf receives server-side failures. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

type api struct {
	payments *payment.Service
	accounts *accounts.Service
	reports  *reporting.Engine
	errs     apperrors.Renderer
}

// NewHandler builds the instrumented router.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Payments == nil {
		return nil, errors.New("payment service is required")
	}
	if cfg.Accounts == nil {
		return nil, errors.New("account service is required")
	}
	if cfg.Reports == nil {
		return nil, errors.New("reporting engine is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("token verifier is required")
	}

	a := &api{
		payments: cfg.Payments,
		accounts: cfg.Accounts,
		reports:  cfg.Reports,
		errs:     apperrors.Renderer{Production: cfg.Production, Logf: cfg.Logf},
	}
	resolver := identity.NewResolver(cfg.Verifier, a.errs.Write)
	guard := access.NewGuard(a.errs.Write)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeouts.Request))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		a.errs.Write(w, apperrors.New(apperrors.KindNotFound, "Route not found"))
	})

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/payment", func(r chi.Router) {
			r.Get("/amounts", a.handleAmounts)
			r.Post("/amounts", a.handleAmounts)
			r.With(resolver.Middleware(identity.Permissive)).Post("/qr/generate", a.handleGenerateQR)
			r.With(
				resolver.Middleware(identity.Strict),
				guard.Middleware(identity.RoleUser, identity.RoleAdmin, identity.RoleSuperAdmin),
			).Post("/verify", a.handleVerify)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.handleRegister)
			r.Post("/login", a.handleLogin)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", a.handleAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(resolver.Middleware(identity.Strict))
				r.Use(guard.Middleware(reporting.AdminRoles...))
				r.Get("/stats", a.handleStats)
				r.Get("/donations", a.handleListDonations)
				r.Get("/donations/export", a.handleExportDonations)
				r.Get("/donations/{id}", a.handleGetDonation)
				r.Put("/donations/{id}", a.handleUpdateDonation)
			})
		})
	})

	return otelhttp.NewHandler(r, "donations.http"), nil
}

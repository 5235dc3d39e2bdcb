package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/account"
	"github.com/louisbranch/donations/internal/services/donations/accounts"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/payment"
	"github.com/louisbranch/donations/internal/services/donations/reporting"
)

var defaultLanguage = language.MustParse("en-IN")

type amountsResponse struct {
	Success bool             `json:"success"`
	Amounts []payment.Preset `json:"amounts"`
}

type qrRequest struct {
	Amount json.RawMessage `json:"amount"`
}

type qrResponse struct {
	Success bool `json:"success"`
	payment.Intent
}

type verifyResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payment ledger.Donation `json:"payment"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) identifier() string {
	for _, value := range []string{r.Login, r.Email, r.Username} {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

type sessionResponse struct {
	Success bool `json:"success"`
	accounts.Session
}

type statsResponse struct {
	Success bool `json:"success"`
	ledger.Statistics
}

type listResponse struct {
	Success bool `json:"success"`
	reporting.ListResult
}

type exportResponse struct {
	Success   bool                     `json:"success"`
	Donations []reporting.ExportRecord `json:"donations"`
}

type donationResponse struct {
	Success  bool            `json:"success"`
	Donation ledger.Donation `json:"donation"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleAmounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, amountsResponse{
		Success: true,
		Amounts: payment.Presets(requestLanguage(r), a.payments.Currency()),
	})
}

func (a *api) handleGenerateQR(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := decodeJSON(r, &req); err != nil {
		a.errs.Write(w, err)
		return
	}
	intent, err := a.payments.GenerateIntent(r.Context(), req.Amount)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qrResponse{Success: true, Intent: intent})
}

func (a *api) handleVerify(w http.ResponseWriter, r *http.Request) {
	var in payment.VerifyInput
	if err := decodeJSON(r, &in); err != nil {
		a.errs.Write(w, err)
		return
	}
	donation, err := a.payments.VerifyAndRecord(r.Context(), identity.FromContext(r.Context()), in)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Message: "Payment verified successfully",
		Payment: donation,
	})
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg account.Registration
	if err := decodeJSON(r, &reg); err != nil {
		a.errs.Write(w, err)
		return
	}
	session, err := a.accounts.Register(r.Context(), reg)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: session})
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.errs.Write(w, err)
		return
	}
	session, err := a.accounts.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

func (a *api) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.errs.Write(w, err)
		return
	}
	session, err := a.accounts.AdminLogin(r.Context(), req.identifier(), req.Password)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

func (a *api) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.reports.Snapshot(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Statistics: stats})
}

func (a *api) handleListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := a.reports.List(r.Context(), identity.FromContext(r.Context()), reporting.ListQuery{
		Status: q.Get("status"),
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
	})
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, ListResult: result})
}

func (a *api) handleExportDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := a.reports.Export(r.Context(), identity.FromContext(r.Context()), reporting.ExportQuery{
		Start:  q.Get("startDate"),
		End:    q.Get("endDate"),
		Status: q.Get("status"),
	})
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Success: true, Donations: records})
}

func (a *api) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	donation, err := a.reports.Get(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donationResponse{Success: true, Donation: donation})
}

func (a *api) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.errs.Write(w, err)
		return
	}
	donation, err := a.payments.CorrectStatus(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.errs.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donationResponse{Success: true, Donation: donation})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched so the workflow reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Validation(apperrors.FieldError{
			Field:   "body",
			Message: fmt.Sprintf("invalid JSON: %v", err),
		})
	}
	return nil
}

func requestLanguage(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return defaultLanguage
	}
	return tags[0]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/donations/internal/platform/errors"
	"github.com/louisbranch/donations/internal/services/donations/identity"
	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/storage/sqlite"
)

var (
	admin = identity.Principal{SubjectID: "A1", Role: identity.RoleAdmin}
	super = identity.Principal{SubjectID: "S1", Role: identity.RoleSuperAdmin}
	user  = identity.Principal{SubjectID: "U1", Role: identity.RoleUser}
)

func newTestEngine(t *testing.T, seed ...ledger.Donation) *Engine {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "reporting.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	for _, d := range seed {
		if err := store.CreateDonation(context.Background(), d); err != nil {
			t.Fatalf("seed %s: %v", d.ID, err)
		}
	}
	engine, err := NewEngine(store)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func record(id string, amount int64, status ledger.Status, createdAt time.Time) ledger.Donation {
	return ledger.Donation{
		ID:            id,
		Amount:        amount,
		TransactionID: "TXN-" + id,
		Status:        status,
		PaymentMethod: ledger.MethodUPI,
		Version:       1,
		CreatedAt:     createdAt,
	}
}

func TestSnapshotScenario(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	engine := newTestEngine(t,
		record("a", 100, ledger.StatusCompleted, now),
		record("b", 250, ledger.StatusCompleted, now.Add(time.Hour)),
		record("c", 50, ledger.StatusPending, now.Add(2*time.Hour)),
	)
	stats, err := engine.Snapshot(context.Background(), admin)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if stats.TotalAmount != 350 || stats.TotalDonations != 3 || stats.SuccessfulDonations != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.MonthlyDonations) != 1 || stats.MonthlyDonations[0] != (ledger.MonthlyTotal{Year: 2025, Month: 3, Total: 350}) {
		t.Fatalf("monthly = %+v", stats.MonthlyDonations)
	}
}

func TestSnapshotSumIgnoresNonCompleted(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var seed []ledger.Donation
	var want int64
	statuses := []ledger.Status{ledger.StatusCompleted, ledger.StatusPending, ledger.StatusFailed}
	for i := 0; i < 30; i++ {
		status := statuses[i%3]
		amount := int64(i*7 + 1)
		if status == ledger.StatusCompleted {
			want += amount
		}
		seed = append(seed, record(fmt.Sprintf("d%02d", i), amount, status, base.AddDate(0, 0, i*5)))
	}
	engine := newTestEngine(t, seed...)
	stats, err := engine.Snapshot(context.Background(), super)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if stats.TotalAmount != want || stats.SuccessfulDonations != 10 || stats.TotalDonations != 30 {
		t.Fatalf("stats = %+v, want total %d", stats, want)
	}
	var monthly int64
	for i, m := range stats.MonthlyDonations {
		monthly += m.Total
		if i > 0 {
			prev := stats.MonthlyDonations[i-1]
			if prev.Year > m.Year || (prev.Year == m.Year && prev.Month >= m.Month) {
				t.Fatalf("months out of order: %+v", stats.MonthlyDonations)
			}
		}
	}
	if monthly != want {
		t.Fatalf("monthly sum = %d, want %d", monthly, want)
	}
}

func TestOperationsRequireAdmin(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	for _, p := range []identity.Principal{user, identity.Anonymous()} {
		if _, err := engine.Snapshot(ctx, p); !apperrors.IsKind(err, apperrors.KindForbidden) {
			t.Fatalf("snapshot as %s: %v", p.Role, err)
		}
		if _, err := engine.List(ctx, p, ListQuery{}); !apperrors.IsKind(err, apperrors.KindForbidden) {
			t.Fatalf("list as %s: %v", p.Role, err)
		}
		if _, err := engine.Export(ctx, p, ExportQuery{}); !apperrors.IsKind(err, apperrors.KindForbidden) {
			t.Fatalf("export as %s: %v", p.Role, err)
		}
		if _, err := engine.Get(ctx, p, "x"); !apperrors.IsKind(err, apperrors.KindForbidden) {
			t.Fatalf("get as %s: %v", p.Role, err)
		}
	}
}

func TestListPagination(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var seed []ledger.Donation
	for i := 0; i < 25; i++ {
		status := ledger.StatusCompleted
		if i%5 == 0 {
			status = ledger.StatusPending
		}
		seed = append(seed, record(fmt.Sprintf("d%02d", i), 10, status, base.Add(time.Duration(i)*time.Minute)))
	}
	engine := newTestEngine(t, seed...)
	ctx := context.Background()

	tests := []struct {
		name        string
		query       ListQuery
		items       int
		total       int64
		pageCount   int
		currentPage int
		firstID     string
	}{
		{name: "defaults", query: ListQuery{}, items: 10, total: 25, pageCount: 3, currentPage: 1, firstID: "d24"},
		{name: "invalid values", query: ListQuery{Page: "abc", Limit: "-4"}, items: 10, total: 25, pageCount: 3, currentPage: 1, firstID: "d24"},
		{name: "last page", query: ListQuery{Page: "3", Limit: "10"}, items: 5, total: 25, pageCount: 3, currentPage: 3, firstID: "d04"},
		{name: "beyond last", query: ListQuery{Page: "9"}, items: 0, total: 25, pageCount: 3, currentPage: 9},
		{name: "overflowing page", query: ListQuery{Page: "922337203685477582", Limit: "10"}, items: 0, total: 25, pageCount: 3, currentPage: math.MaxInt / 10},
		{name: "capped limit", query: ListQuery{Limit: "1000"}, items: 25, total: 25, pageCount: 1, currentPage: 1, firstID: "d24"},
		{name: "pending filter", query: ListQuery{Status: "pending"}, items: 5, total: 5, pageCount: 1, currentPage: 1, firstID: "d20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.List(ctx, admin, tc.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got.Items) != tc.items || got.Total != tc.total || got.PageCount != tc.pageCount || got.CurrentPage != tc.currentPage {
				t.Fatalf("result = items:%d total:%d pages:%d current:%d", len(got.Items), got.Total, got.PageCount, got.CurrentPage)
			}
			if tc.firstID != "" && got.Items[0].ID != tc.firstID {
				t.Fatalf("first id = %s, want %s", got.Items[0].ID, tc.firstID)
			}
		})
	}

	if _, err := engine.List(ctx, admin, ListQuery{Status: "refunded"}); !apperrors.IsKind(err, apperrors.KindValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

func TestExport(t *testing.T) {
	engine := newTestEngine(t,
		record("jan", 100, ledger.StatusCompleted, time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)),
		record("feb", 200, ledger.StatusPending, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
		record("mar", 300, ledger.StatusCompleted, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
	)
	ctx := context.Background()

	got, err := engine.Export(ctx, admin, ExportQuery{Start: "2025-01-01", End: "2025-01-31"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(got) != 1 || got[0].ID != "jan" {
		t.Fatalf("january export = %+v", got)
	}

	got, err = engine.Export(ctx, admin, ExportQuery{Start: "2025-02-01T00:00:00Z", End: "2025-03-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(got) != 2 || got[0].ID != "mar" || got[1].ID != "feb" {
		t.Fatalf("inclusive export = %+v", got)
	}

	got, err = engine.Export(ctx, admin, ExportQuery{Status: "completed"})
	if err != nil || len(got) != 2 {
		t.Fatalf("completed export = %+v %v", got, err)
	}

	raw, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "version") {
		t.Fatalf("export leaked version: %s", raw)
	}

	_, err = engine.Export(ctx, admin, ExportQuery{Start: "yesterday", End: "2025-01-01", Status: "nope"})
	domainErr := apperrors.As(err)
	if domainErr == nil || domainErr.Kind != apperrors.KindValidationFailed || len(domainErr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
	if _, err := engine.Export(ctx, admin, ExportQuery{Start: "2025-03-01", End: "2025-01-01"}); !apperrors.IsKind(err, apperrors.KindValidationFailed) {
		t.Fatalf("expected reversed range error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	engine := newTestEngine(t, record("one", 100, ledger.StatusCompleted, time.Now()))
	got, err := engine.Get(context.Background(), admin, "one")
	if err != nil || got.ID != "one" {
		t.Fatalf("get = %+v %v", got, err)
	}
	if _, err := engine.Get(context.Background(), admin, "missing"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

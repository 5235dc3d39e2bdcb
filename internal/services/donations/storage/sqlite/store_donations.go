package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/donations/internal/services/donations/ledger"
	"github.com/louisbranch/donations/internal/services/donations/storage"
)

const donationColumns = `id, amount, transaction_id, status, payment_method,
       donor_name, donor_email, donor_phone, purpose, message, anonymous,
       owner_user_id, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (ledger.Donation, error) {
	var d ledger.Donation
	var status, method string
	var donor ledger.Donor
	var anonymous int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&d.ID,
		&d.Amount,
		&d.TransactionID,
		&status,
		&method,
		&donor.Name,
		&donor.Email,
		&donor.Phone,
		&d.Purpose,
		&d.Message,
		&anonymous,
		&d.OwnerUserID,
		&d.Version,
		&createdAt,
		&updatedAt,
	); err != nil {
		return ledger.Donation{}, err
	}
	d.Status = ledger.Status(status)
	d.PaymentMethod = ledger.PaymentMethod(method)
	if !donor.Empty() {
		d.Donor = &donor
	}
	d.Anonymous = anonymous != 0
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(updatedAt)
	return d, nil
}

// CreateDonation inserts one donation. The unique transaction id index makes
// the check and the insert one statement.
func (s *Store) CreateDonation(ctx context.Context, d ledger.Donation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	createdAt := d.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := d.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	version := d.Version
	if version <= 0 {
		version = 1
	}
	var donor ledger.Donor
	if d.Donor != nil {
		donor = d.Donor.Normalize()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO donations (`+donationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.Amount,
		strings.TrimSpace(d.TransactionID),
		string(d.Status),
		string(d.PaymentMethod),
		donor.Name,
		donor.Email,
		donor.Phone,
		strings.TrimSpace(d.Purpose),
		strings.TrimSpace(d.Message),
		boolToInt(d.Anonymous),
		d.OwnerUserID,
		version,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isTransactionIDViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetDonation returns one donation by id.
func (s *Store) GetDonation(ctx context.Context, id string) (ledger.Donation, error) {
	if err := s.ready(ctx); err != nil {
		return ledger.Donation{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ledger.Donation{}, storage.ErrNotFound
	}
	d, err := scanDonation(s.sqlDB.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Donation{}, storage.ErrNotFound
		}
		return ledger.Donation{}, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// TransitionDonation applies a pending to terminal status change as a
// conditional update inside one transaction.
func (s *Store) TransitionDonation(ctx context.Context, id string, status ledger.Status, at time.Time) (ledger.Donation, error) {
	if err := s.ready(ctx); err != nil {
		return ledger.Donation{}, err
	}
	if !ledger.CanTransition(ledger.StatusPending, status) {
		return ledger.Donation{}, storage.ErrInvalidTransition
	}
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Donation{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE donations
		    SET status = ?, version = version + 1, updated_at = ?
		  WHERE id = ? AND status = ?`,
		string(status),
		toMillis(at),
		id,
		string(ledger.StatusPending),
	)
	if err != nil {
		return ledger.Donation{}, fmt.Errorf("transition donation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return ledger.Donation{}, fmt.Errorf("transition donation: %w", err)
	}

	d, err := scanDonation(tx.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Donation{}, storage.ErrNotFound
		}
		return ledger.Donation{}, fmt.Errorf("read transitioned donation: %w", err)
	}
	if affected == 0 {
		return ledger.Donation{}, storage.ErrInvalidTransition
	}
	if err := tx.Commit(); err != nil {
		return ledger.Donation{}, fmt.Errorf("commit transition: %w", err)
	}
	return d, nil
}

func filterClause(filter storage.DonationFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Start.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, toMillis(filter.Start))
	}
	if !filter.End.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, toMillis(filter.End))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListDonations returns one offset page, newest first.
func (s *Store) ListDonations(ctx context.Context, filter storage.DonationFilter, limit, offset int) (storage.DonationPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.DonationPage{}, err
	}
	if limit <= 0 {
		return storage.DonationPage{}, fmt.Errorf("limit must be greater than zero")
	}
	if offset < 0 {
		offset = 0
	}
	where, args := filterClause(filter)

	var total int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM donations`+where, args...).Scan(&total); err != nil {
		return storage.DonationPage{}, fmt.Errorf("count donations: %w", err)
	}

	donations, err := s.queryDonations(ctx,
		`SELECT `+donationColumns+` FROM donations`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
	}
	return storage.DonationPage{Donations: donations, Total: total}, nil
}

// ExportDonations returns every matching donation, newest first.
func (s *Store) ExportDonations(ctx context.Context, filter storage.DonationFilter) ([]ledger.Donation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	where, args := filterClause(filter)
	donations, err := s.queryDonations(ctx,
		`SELECT `+donationColumns+` FROM donations`+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("export donations: %w", err)
	}
	return donations, nil
}

func (s *Store) queryDonations(ctx context.Context, query string, args ...any) ([]ledger.Donation, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := []ledger.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

// DonationStatistics aggregates the ledger in SQL. Months are bucketed in UTC.
func (s *Store) DonationStatistics(ctx context.Context) (ledger.Statistics, error) {
	if err := s.ready(ctx); err != nil {
		return ledger.Statistics{}, err
	}
	stats := ledger.Statistics{
		MonthlyDonations:     []ledger.MonthlyTotal{},
		DonationDistribution: []ledger.PurposeTotal{},
	}

	if err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ?1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ?1 THEN amount ELSE 0 END), 0)
		   FROM donations`,
		string(ledger.StatusCompleted),
	).Scan(&stats.TotalDonations, &stats.SuccessfulDonations, &stats.TotalAmount); err != nil {
		return ledger.Statistics{}, fmt.Errorf("donation totals: %w", err)
	}

	monthly, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT CAST(strftime('%Y', created_at / 1000, 'unixepoch') AS INTEGER) AS year,
		        CAST(strftime('%m', created_at / 1000, 'unixepoch') AS INTEGER) AS month,
		        SUM(amount)
		   FROM donations
		  WHERE status = ?
		  GROUP BY year, month
		  ORDER BY year ASC, month ASC`,
		string(ledger.StatusCompleted),
	)
	if err != nil {
		return ledger.Statistics{}, fmt.Errorf("monthly donations: %w", err)
	}
	defer monthly.Close()
	for monthly.Next() {
		var m ledger.MonthlyTotal
		if err := monthly.Scan(&m.Year, &m.Month, &m.Total); err != nil {
			return ledger.Statistics{}, fmt.Errorf("monthly donations: %w", err)
		}
		stats.MonthlyDonations = append(stats.MonthlyDonations, m)
	}
	if err := monthly.Err(); err != nil {
		return ledger.Statistics{}, fmt.Errorf("monthly donations: %w", err)
	}

	purposes, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT purpose, SUM(amount)
		   FROM donations
		  WHERE status = ?
		  GROUP BY purpose
		  ORDER BY purpose ASC`,
		string(ledger.StatusCompleted),
	)
	if err != nil {
		return ledger.Statistics{}, fmt.Errorf("donation distribution: %w", err)
	}
	defer purposes.Close()
	for purposes.Next() {
		var p ledger.PurposeTotal
		if err := purposes.Scan(&p.Purpose, &p.Total); err != nil {
			return ledger.Statistics{}, fmt.Errorf("donation distribution: %w", err)
		}
		stats.DonationDistribution = append(stats.DonationDistribution, p)
	}
	if err := purposes.Err(); err != nil {
		return ledger.Statistics{}, fmt.Errorf("donation distribution: %w", err)
	}
	return stats, nil
}

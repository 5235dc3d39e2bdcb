package ledger

import (
	"sort"
	"time"
)

// MonthlyTotal is the completed amount for one calendar month.
type MonthlyTotal struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

// PurposeTotal is the completed amount for one purpose.
type PurposeTotal struct {
	Purpose string `json:"purpose"`
	Total   int64  `json:"total"`
}

// Statistics is the aggregate view over the ledger.
type Statistics struct {
	TotalDonations       int64          `json:"totalDonations"`
	SuccessfulDonations  int64          `json:"successfulDonations"`
	TotalAmount          int64          `json:"totalAmount"`
	MonthlyDonations     []MonthlyTotal `json:"monthlyDonations"`
	DonationDistribution []PurposeTotal `json:"donationDistribution"`
}

// Summarize computes statistics from records in memory. Months are bucketed
// in UTC. Only completed records contribute to sums.
func Summarize(records []Donation) Statistics {
	stats := Statistics{
		MonthlyDonations:     []MonthlyTotal{},
		DonationDistribution: []PurposeTotal{},
	}
	type monthKey struct{ year, month int }
	months := map[monthKey]int64{}
	purposes := map[string]int64{}

	for _, record := range records {
		stats.TotalDonations++
		if record.Status != StatusCompleted {
			continue
		}
		stats.SuccessfulDonations++
		stats.TotalAmount += record.Amount
		created := record.CreatedAt.UTC()
		months[monthKey{created.Year(), int(created.Month())}] += record.Amount
		purposes[record.Purpose] += record.Amount
	}

	for key, total := range months {
		stats.MonthlyDonations = append(stats.MonthlyDonations, MonthlyTotal{Year: key.year, Month: key.month, Total: total})
	}
	sort.Slice(stats.MonthlyDonations, func(i, j int) bool {
		a, b := stats.MonthlyDonations[i], stats.MonthlyDonations[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	for purpose, total := range purposes {
		stats.DonationDistribution = append(stats.DonationDistribution, PurposeTotal{Purpose: purpose, Total: total})
	}
	sort.Slice(stats.DonationDistribution, func(i, j int) bool {
		return stats.DonationDistribution[i].Purpose < stats.DonationDistribution[j].Purpose
	})
	return stats
}

// InRange reports whether t lies in [start, end]. Zero bounds are open.
func InRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

// Package sqlite provides SQLite-backed donation and account persistence.
//
// It is the default ledger backend. Transaction id uniqueness is a unique
// index and status changes are conditional updates, so several processes
// sharing one database file observe the same outcome.
package sqlite

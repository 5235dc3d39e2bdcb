// Package storage defines persistence contracts for the donations ledger
// and login accounts.
//
// Implementations must enforce transaction id uniqueness and status
// compare-and-swap in the backend itself so concurrent writers from separate
// processes observe the same outcome.
package storage

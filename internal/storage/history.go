// Package storage defines the persisted price history contract.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one completed check cycle: when it ran and the cheapest
// price it found.
type Entry struct {
	CheckedAt time.Time
	Price     decimal.Decimal
}

// Store is an append-only ledger of check results. Load returns the
// full history in chronological order; a missing or corrupt backing
// store loads as empty, not as an error. Append must be durable before
// it returns, so history survives even when a later notification fails.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Append(ctx context.Context, e Entry) error
	Close()
}

package domain

import (
	"context"
)

// Service is the persistence upsert layer: it writes one normalized
// aggregate atomically, keyed by the invoice's natural identity.
type Service interface {
	// Upsert merges the aggregate header onto an existing invoice (or
	// inserts a new one) and fully replaces its line items and payments,
	// inside a single transaction.
	Upsert(ctx context.Context, agg Aggregate) (*Invoice, error)
}

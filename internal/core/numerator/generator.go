package numerator

import (
	"context"
	"time"
)

// Generator issues sequential document numbers per (company, document type).
// Implementations live in the infrastructure layer.
type Generator interface {
	// Next returns a number for period. The lowest recycled number of the
	// period is reissued first; otherwise the sequence advances.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
	Next(ctx context.Context, scope Scope, period time.Time) (string, error)

	// Recycle returns a number to the scope's pool. Callers recycle only
	// numbers of voided or deleted documents. Recycling twice is a no-op.
	Recycle(ctx context.Context, scope Scope, number string) error
}

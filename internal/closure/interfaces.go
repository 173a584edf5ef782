package closure

import (
	"context"
	"time"

	"github.com/dmolina/cash-closure/internal/domain"
)

// Feed reads raw monetary movement records from the external ledger.
// For a window fully in the past, Fetch must be repeatable: the same
// [start, end) yields the same rows.
type Feed interface {
	// Fetch returns one page of transactions with OccurredAt in
	// [start, end), plus the total match count. Pages are 1-based.
	Fetch(ctx context.Context, start, end time.Time, page, pageSize int) ([]domain.Transaction, int, error)
}

// Filter narrows a closure history listing. Nil time bounds and an empty
// status mean "any".
type Filter struct {
	Start    *time.Time
	End      *time.Time
	Status   domain.ClosureStatus
	Page     int
	PageSize int
}

// Store persists immutable closure records and the watermark marking the end
// of the most recently closed period.
//
// CommitClosure is the store's one mutation and must be atomic: it compares
// the stored watermark against expected, and only if they match writes the
// closure record and advances the watermark to the closure's period end, all
// in a single transactional unit, so a crash can never leave the watermark
// and the record set disagreeing. A mismatch returns ErrAlreadyClosed.
type Store interface {
	Watermark(ctx context.Context) (*time.Time, error)
	CommitClosure(ctx context.Context, expected *time.Time, c *domain.CashClosure) error
	ListClosures(ctx context.Context, f Filter) ([]*domain.CashClosure, int, error)
}

package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
)

// Feed is an in-memory transaction feed. Fetch is repeatable for a fixed
// window: results are ordered by occurrence time, then by ID.
type Feed struct {
	mu  sync.RWMutex
	txs []domain.Transaction
}

// NewFeed creates an empty in-memory feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Add records transactions into the feed.
func (f *Feed) Add(txs ...domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, txs...)
}

// Fetch implements the closure.Feed interface. It returns the page of
// transactions with OccurredAt in [start, end).
func (f *Feed) Fetch(ctx context.Context, start, end time.Time, page, pageSize int) ([]domain.Transaction, int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var matched []domain.Transaction
	for _, tx := range f.txs {
		if tx.OccurredAt.Before(start) || !tx.OccurredAt.Before(end) {
			continue
		}
		matched = append(matched, tx)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.Before(matched[j].OccurredAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)

	if page <= 0 {
		page = 1
	}
	if pageSize > 0 {
		offset := (page - 1) * pageSize
		if offset >= len(matched) {
			return []domain.Transaction{}, total, nil
		}
		matched = matched[offset:]
		if pageSize < len(matched) {
			matched = matched[:pageSize]
		}
	}

	return matched, total, nil
}

// Ensure Feed implements the closure.Feed interface.
var _ closure.Feed = (*Feed)(nil)

// Package inmemory provides feed and store implementations backed by process
// memory. They are safe for concurrent use and serve tests and local runs;
// data is lost on restart; production deployments use the BigQuery adapters.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
)

// Store is an in-memory closure store. The watermark compare-and-swap and the
// closure append happen under one lock, which makes the commit atomic.
type Store struct {
	mu        sync.Mutex
	watermark *time.Time
	closures  []*domain.CashClosure
}

// NewStore creates an empty in-memory closure store.
func NewStore() *Store {
	return &Store{}
}

// Watermark implements the closure.Store interface.
func (s *Store) Watermark(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watermark == nil {
		return nil, nil
	}
	wm := *s.watermark
	return &wm, nil
}

// CommitClosure implements the closure.Store interface. The stored watermark
// must still equal expected, otherwise a concurrent close won the race.
func (s *Store) CommitClosure(ctx context.Context, expected *time.Time, c *domain.CashClosure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !timesMatch(s.watermark, expected) {
		return closure.ErrAlreadyClosed
	}

	// Copy so later caller mutations cannot reach the stored record.
	cc := *c
	cc.PaymentMethods = append([]domain.PaymentMethodTotal(nil), c.PaymentMethods...)
	if c.ClosedAt != nil {
		at := *c.ClosedAt
		cc.ClosedAt = &at
	}

	s.closures = append(s.closures, &cc)
	wm := cc.PeriodEnd
	s.watermark = &wm
	return nil
}

// ListClosures implements the closure.Store interface. Results are newest
// first by period end.
func (s *Store) ListClosures(ctx context.Context, f closure.Filter) ([]*domain.CashClosure, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.CashClosure
	for _, c := range s.closures {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Start != nil && c.PeriodEnd.Before(*f.Start) {
			continue
		}
		if f.End != nil && !c.PeriodStart.Before(*f.End) {
			continue
		}
		cc := *c
		matched = append(matched, &cc)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PeriodEnd.After(matched[j].PeriodEnd)
	})

	total := len(matched)
	matched = paginate(matched, f.Page, f.PageSize)
	return matched, total, nil
}

func paginate(items []*domain.CashClosure, page, pageSize int) []*domain.CashClosure {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		return items
	}
	offset := (page - 1) * pageSize
	if offset >= len(items) {
		return []*domain.CashClosure{}
	}
	items = items[offset:]
	if pageSize < len(items) {
		items = items[:pageSize]
	}
	return items
}

func timesMatch(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Ensure Store implements the closure.Store interface.
var _ closure.Store = (*Store)(nil)

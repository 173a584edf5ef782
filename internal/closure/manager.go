// Package closure orchestrates cash-register period reconciliation: resolving
// the open period, aggregating its transactions and performing the
// at-most-once close that freezes the period and starts the next one.
package closure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmolina/cash-closure/internal/aggregate"
	"github.com/dmolina/cash-closure/internal/domain"
	"github.com/dmolina/cash-closure/internal/period"
)

// DefaultPageSize is how many transactions the manager pulls from the feed
// per page while scanning a period.
const DefaultPageSize = 200

// Config carries the manager's tunables. Zero values fall back to defaults;
// Now exists so tests can pin the clock.
type Config struct {
	CutoffHour int
	PageSize   int
	Now        func() time.Time
}

// Manager owns the cross-cutting closure invariants. Reads are side-effect
// free; the close's mutual exclusion is delegated entirely to the store's
// atomic commit, so no in-process lock is held across adapter I/O.
type Manager struct {
	feed       Feed
	store      Store
	cutoffHour int
	pageSize   int
	now        func() time.Time
	log        zerolog.Logger
}

// NewManager wires a manager over the given feed and store adapters.
func NewManager(feed Feed, store Store, cfg Config, log zerolog.Logger) *Manager {
	m := &Manager{
		feed:       feed,
		store:      store,
		cutoffHour: cfg.CutoffHour,
		pageSize:   cfg.PageSize,
		now:        cfg.Now,
		log:        log,
	}
	if m.cutoffHour <= 0 {
		m.cutoffHour = period.DefaultCutoffHour
	}
	if m.pageSize <= 0 {
		m.pageSize = DefaultPageSize
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Current returns the transient open closure for the period running now:
// resolved boundaries, live totals, no ID and no closed-at. It never writes,
// so any number of callers may invoke it concurrently and repeatedly.
func (m *Manager) Current(ctx context.Context) (*domain.CashClosure, error) {
	now := m.now()

	start, end, txs, err := m.resolveAndFetch(ctx, now)
	if err != nil {
		return nil, err
	}

	res := aggregate.Aggregate(txs)

	m.log.Debug().
		Time("period_start", start).
		Time("period_end", end).
		Int("transactions", len(txs)).
		Msg("Resolved current open period")

	return &domain.CashClosure{
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         domain.ClosureStatusOpen,
		TotalCredit:    res.TotalCredit,
		TotalDebit:     res.TotalDebit,
		TotalAmount:    res.TotalAmount,
		PaymentMethods: res.PerMethod,
	}, nil
}

// Close freezes the current period as an immutable record attributed to
// actor, and advances the period boundary so the next period starts exactly
// where this one ends.
//
// The period is re-resolved and re-aggregated at close time, so transactions
// that arrived after the caller last viewed the open totals are included. A
// concurrent close that won the race surfaces as ErrAlreadyClosed and is not
// retried here.
func (m *Manager) Close(ctx context.Context, actor string) (*domain.CashClosure, error) {
	now := m.now()

	wm, err := m.store.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading watermark: %v", ErrStoreUnavailable, err)
	}

	start, end, err := period.Resolve(now, wm, m.cutoffHour)
	if err != nil {
		return nil, err
	}

	// A zero-length period against an existing watermark means another close
	// already advanced the boundary to this very instant.
	if wm != nil && !end.After(start) {
		return nil, ErrAlreadyClosed
	}

	txs, err := m.fetchAll(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	res := aggregate.Aggregate(txs)

	closedAt := end
	c := &domain.CashClosure{
		ID:             uuid.NewString(),
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         domain.ClosureStatusClosed,
		TotalCredit:    res.TotalCredit,
		TotalDebit:     res.TotalDebit,
		TotalAmount:    res.TotalAmount,
		PaymentMethods: res.PerMethod,
		ClosedAt:       &closedAt,
		ClosedBy:       actor,
	}

	if err := m.store.CommitClosure(ctx, wm, c); err != nil {
		if errors.Is(err, ErrAlreadyClosed) {
			m.log.Warn().
				Time("period_start", start).
				Time("period_end", end).
				Str("closed_by", actor).
				Msg("Lost close race to a concurrent request")
			return nil, err
		}
		return nil, fmt.Errorf("%w: committing closure: %v", ErrStoreUnavailable, err)
	}

	m.log.Info().
		Str("closure_id", c.ID).
		Time("period_start", start).
		Time("period_end", end).
		Str("closed_by", actor).
		Str("total_amount", c.TotalAmount.String()).
		Int("transactions", len(txs)).
		Msg("Closed cash period")

	return c, nil
}

// History lists persisted closures matching the filter, newest first.
func (m *Manager) History(ctx context.Context, f Filter) ([]*domain.CashClosure, int, error) {
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	items, total, err := m.store.ListClosures(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing closures: %v", ErrStoreUnavailable, err)
	}
	return items, total, nil
}

// resolveAndFetch resolves the open period against the stored watermark and
// pulls its full transaction set from the feed.
func (m *Manager) resolveAndFetch(ctx context.Context, now time.Time) (start, end time.Time, txs []domain.Transaction, err error) {
	wm, err := m.store.Watermark(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: reading watermark: %v", ErrStoreUnavailable, err)
	}

	start, end, err = period.Resolve(now, wm, m.cutoffHour)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}

	txs, err = m.fetchAll(ctx, start, end)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return start, end, txs, nil
}

// fetchAll pages through the feed until the reported total is collected or a
// short page signals the end.
func (m *Manager) fetchAll(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	var all []domain.Transaction
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, total, err := m.feed.Fetch(ctx, start, end, page, m.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		all = append(all, items...)

		if len(items) < m.pageSize || len(all) >= total {
			return all, nil
		}
	}
}

package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmolina/cash-closure/internal/closure"
	"github.com/dmolina/cash-closure/internal/domain"
)

func closedAt(start, end time.Time, id string) *domain.CashClosure {
	at := end
	return &domain.CashClosure{
		ID:             id,
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         domain.ClosureStatusClosed,
		TotalCredit:    decimal.Zero,
		TotalDebit:     decimal.Zero,
		TotalAmount:    decimal.Zero,
		PaymentMethods: []domain.PaymentMethodTotal{},
		ClosedAt:       &at,
		ClosedBy:       "test",
	}
}

func TestStore_CommitClosureAdvancesWatermark(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	wm, err := s.Watermark(ctx)
	if err != nil {
		t.Fatalf("Watermark() error: %v", err)
	}
	if wm != nil {
		t.Fatalf("expected nil watermark on empty store, got %v", wm)
	}

	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	if err := s.CommitClosure(ctx, nil, closedAt(start, end, "c1")); err != nil {
		t.Fatalf("CommitClosure() error: %v", err)
	}

	wm, err = s.Watermark(ctx)
	if err != nil {
		t.Fatalf("Watermark() error: %v", err)
	}
	if wm == nil || !wm.Equal(end) {
		t.Fatalf("watermark = %v, want %s", wm, end)
	}
}

func TestStore_CommitClosureRejectsStaleExpectation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Hour)

	if err := s.CommitClosure(ctx, nil, closedAt(start, end, "c1")); err != nil {
		t.Fatalf("first CommitClosure() error: %v", err)
	}

	// A second commit still expecting the pre-close watermark must lose.
	err := s.CommitClosure(ctx, nil, closedAt(start, end.Add(time.Hour), "c2"))
	if !errors.Is(err, closure.ErrAlreadyClosed) {
		t.Fatalf("CommitClosure() error = %v, want ErrAlreadyClosed", err)
	}

	// Committing against the advanced watermark succeeds.
	if err := s.CommitClosure(ctx, &end, closedAt(end, end.Add(time.Hour), "c3")); err != nil {
		t.Fatalf("CommitClosure() with fresh expectation error: %v", err)
	}
}

func TestStore_ListClosures(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	prev := base
	for i := 0; i < 5; i++ {
		end := prev.Add(24 * time.Hour)
		wm, _ := s.Watermark(ctx)
		if err := s.CommitClosure(ctx, wm, closedAt(prev, end, "c"+string(rune('0'+i)))); err != nil {
			t.Fatalf("CommitClosure() %d error: %v", i, err)
		}
		prev = end
	}

	items, total, err := s.ListClosures(ctx, closure.Filter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("ListClosures() error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("page size = %d, want 2", len(items))
	}
	if !items[0].PeriodEnd.After(items[1].PeriodEnd) {
		t.Error("expected newest-first ordering")
	}

	// Date filter: only closures ending at or after the bound.
	from := base.Add(3 * 24 * time.Hour)
	items, total, err = s.ListClosures(ctx, closure.Filter{Start: &from, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListClosures() error: %v", err)
	}
	if total != 3 {
		t.Errorf("filtered total = %d, want 3", total)
	}

	// Pagination past the end returns an empty page, not an error.
	items, _, err = s.ListClosures(ctx, closure.Filter{Page: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("ListClosures() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty page, got %d items", len(items))
	}
}

package archive

import (
	"testing"
	"time"

	"github.com/dmolina/cash-closure/internal/domain"
)

func TestObjectName(t *testing.T) {
	c := &domain.CashClosure{
		ID:        "0f8a2c1e-1111-2222-3333-444455556666",
		PeriodEnd: time.Date(2026, 3, 1, 23, 45, 0, 0, time.UTC),
	}

	got := ObjectName(c)
	want := "closures/2026/03/01/0f8a2c1e-1111-2222-3333-444455556666.json"
	if got != want {
		t.Errorf("ObjectName() = %q, want %q", got, want)
	}
}

func TestObjectName_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*60*60)
	c := &domain.CashClosure{
		ID:        "abc",
		PeriodEnd: time.Date(2026, 3, 1, 20, 0, 0, 0, loc), // 02:00 UTC next day
	}

	got := ObjectName(c)
	want := "closures/2026/03/02/abc.json"
	if got != want {
		t.Errorf("ObjectName() = %q, want %q", got, want)
	}
}

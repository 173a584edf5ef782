package aggregate

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dmolina/cash-closure/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Mirrors the canonical register scenario: a cash sale, a typed expense and
// an untyped miscellaneous income that classifies through its category and
// defaults to the cash bucket.
func registerScenario() []domain.Transaction {
	return []domain.Transaction{
		{
			ID:             "tx-1",
			Amount:         dec("500"),
			AffectsBalance: domain.DirectionCredit,
			MethodTag:      "efectivo",
		},
		{
			ID:             "tx-2",
			Amount:         dec("120"),
			AffectsBalance: domain.DirectionDebit,
			Category:       "Gastos",
		},
		{
			ID:       "tx-3",
			Amount:   dec("75"),
			Category: "Ingresos Varios",
		},
	}
}

func TestAggregate_RegisterScenario(t *testing.T) {
	res := Aggregate(registerScenario())

	if !res.TotalCredit.Equal(dec("575")) {
		t.Errorf("TotalCredit = %s, want 575", res.TotalCredit)
	}
	if !res.TotalDebit.Equal(dec("120")) {
		t.Errorf("TotalDebit = %s, want 120", res.TotalDebit)
	}
	if !res.TotalAmount.Equal(dec("455")) {
		t.Errorf("TotalAmount = %s, want 455", res.TotalAmount)
	}

	// All three transactions fold into the cash bucket: tx-2 and tx-3 carry
	// no payment method and default to cash.
	if len(res.PerMethod) != 1 {
		t.Fatalf("PerMethod has %d entries, want 1: %+v", len(res.PerMethod), res.PerMethod)
	}
	cash := res.PerMethod[0]
	if cash.Name != "Efectivo" {
		t.Errorf("method name = %q, want Efectivo", cash.Name)
	}
	if !cash.Credit.Equal(dec("575")) || !cash.Debit.Equal(dec("120")) || !cash.Total.Equal(dec("455")) {
		t.Errorf("cash totals = {credit:%s debit:%s total:%s}, want {575 120 455}",
			cash.Credit, cash.Debit, cash.Total)
	}
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(nil)

	if !res.TotalCredit.IsZero() || !res.TotalDebit.IsZero() || !res.TotalAmount.IsZero() {
		t.Errorf("expected zero totals, got credit=%s debit=%s amount=%s",
			res.TotalCredit, res.TotalDebit, res.TotalAmount)
	}
	if res.PerMethod == nil {
		t.Fatal("PerMethod must be an empty slice, not nil")
	}
	if len(res.PerMethod) != 0 {
		t.Errorf("PerMethod has %d entries, want 0", len(res.PerMethod))
	}
}

func TestAggregate_Commutative(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a", Amount: dec("10.50"), AffectsBalance: domain.DirectionCredit, MethodTag: "efectivo"},
		{ID: "b", Amount: dec("3.25"), AffectsBalance: domain.DirectionDebit, MethodTag: "tarjeta-debito"},
		{ID: "c", Amount: dec("99.99"), Category: "Venta mostrador", MethodTag: "tarjeta"},
		{ID: "d", Amount: dec("-12"), MethodTag: "transferencia"},
		{ID: "e", Amount: dec("7"), MethodRef: &domain.PaymentMethodRef{DisplayName: "Pago en Tienda"}},
	}

	want := Aggregate(txs)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.Transaction, len(txs))
		copy(shuffled, txs)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Aggregate(shuffled)
		if !got.TotalCredit.Equal(want.TotalCredit) ||
			!got.TotalDebit.Equal(want.TotalDebit) ||
			!got.TotalAmount.Equal(want.TotalAmount) {
			t.Fatalf("permutation %d changed totals: got %+v, want %+v", i, got, want)
		}
		if len(got.PerMethod) != len(want.PerMethod) {
			t.Fatalf("permutation %d changed method count", i)
		}
		for j := range want.PerMethod {
			g, w := got.PerMethod[j], want.PerMethod[j]
			if g.Name != w.Name || !g.Credit.Equal(w.Credit) || !g.Debit.Equal(w.Debit) || !g.Total.Equal(w.Total) {
				t.Fatalf("permutation %d changed method %q: got %+v, want %+v", i, w.Name, g, w)
			}
		}
	}
}

func TestAggregate_BalanceIdentity(t *testing.T) {
	res := Aggregate(registerScenario())

	if !res.TotalAmount.Equal(res.TotalCredit.Sub(res.TotalDebit)) {
		t.Errorf("TotalAmount %s != TotalCredit %s - TotalDebit %s",
			res.TotalAmount, res.TotalCredit, res.TotalDebit)
	}
	for _, mt := range res.PerMethod {
		if !mt.Total.Equal(mt.Credit.Sub(mt.Debit)) {
			t.Errorf("method %q: Total %s != Credit %s - Debit %s",
				mt.Name, mt.Total, mt.Credit, mt.Debit)
		}
	}
}

func TestAggregate_DebitMagnitudesArePositive(t *testing.T) {
	res := Aggregate([]domain.Transaction{
		{ID: "x", Amount: dec("-45.10")},
		{ID: "y", Amount: dec("30"), AffectsBalance: domain.DirectionDebit},
	})

	if res.TotalDebit.IsNegative() {
		t.Errorf("TotalDebit = %s, must not be negative", res.TotalDebit)
	}
	if !res.TotalDebit.Equal(dec("75.10")) {
		t.Errorf("TotalDebit = %s, want 75.10", res.TotalDebit)
	}
	for _, mt := range res.PerMethod {
		if mt.Debit.IsNegative() {
			t.Errorf("method %q debit = %s, must not be negative", mt.Name, mt.Debit)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
		want domain.Direction
	}{
		{
			name: "metadata wins over category and sign",
			tx: domain.Transaction{
				Amount:         dec("-10"),
				AffectsBalance: domain.DirectionCredit,
				Category:       "Gastos",
			},
			want: domain.DirectionCredit,
		},
		{
			name: "expense category hint",
			tx:   domain.Transaction{Amount: dec("10"), Category: "Pago proveedores"},
			want: domain.DirectionDebit,
		},
		{
			name: "income category hint",
			tx:   domain.Transaction{Amount: dec("-10"), Category: "Cobro de flete"},
			want: domain.DirectionCredit,
		},
		{
			name: "category hints are case-insensitive",
			tx:   domain.Transaction{Amount: dec("-10"), Category: "INGRESOS VARIOS"},
			want: domain.DirectionCredit,
		},
		{
			name: "unknown category falls back to positive sign",
			tx:   domain.Transaction{Amount: dec("10"), Category: "Otros"},
			want: domain.DirectionCredit,
		},
		{
			name: "unknown category falls back to negative sign",
			tx:   domain.Transaction{Amount: dec("-10"), Category: "Otros"},
			want: domain.DirectionDebit,
		},
		{
			name: "zero amount with no hints is a debit",
			tx:   domain.Transaction{Amount: decimal.Zero},
			want: domain.DirectionDebit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.tx); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

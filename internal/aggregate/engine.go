// Package aggregate folds transactions into per-payment-method and overall
// credit/debit/balance totals. The fold is commutative: any permutation of the
// same input produces an identical result.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmolina/cash-closure/internal/domain"
	"github.com/dmolina/cash-closure/internal/paymethod"
)

// Result holds the aggregated totals for one accounting period.
type Result struct {
	TotalCredit decimal.Decimal
	TotalDebit  decimal.Decimal
	// TotalAmount = TotalCredit - TotalDebit.
	TotalAmount decimal.Decimal
	// PerMethod is sorted by canonical method name and empty (never nil)
	// when there were no transactions.
	PerMethod []domain.PaymentMethodTotal
}

// classifier inspects one signal on a transaction and reports a direction if
// that signal is present. The chain below is evaluated in order, first match
// wins, so the classification priority stays explicit and testable.
type classifier func(domain.Transaction) (domain.Direction, bool)

var classifiers = []classifier{
	byAffectsBalance,
	byCategoryHint,
	byAmountSign,
}

// expenseTerms and incomeTerms are the category substrings the original
// ledger uses to hint a direction when the transaction type metadata is
// missing. Matching is case-insensitive; expense hints are checked first.
var (
	expenseTerms = []string{"gasto", "egreso", "pago", "compra", "retiro", "devolución", "devolucion"}
	incomeTerms  = []string{"ingreso", "venta", "cobro", "abono", "reembolso"}
)

// Classify resolves the credit/debit direction of a transaction through the
// fallback chain: authoritative type metadata, then category hints, then the
// sign of the amount. The final fallback always resolves.
func Classify(tx domain.Transaction) domain.Direction {
	for _, c := range classifiers {
		if d, ok := c(tx); ok {
			return d
		}
	}
	// byAmountSign always reports a direction.
	return domain.DirectionDebit
}

func byAffectsBalance(tx domain.Transaction) (domain.Direction, bool) {
	switch tx.AffectsBalance {
	case domain.DirectionCredit, domain.DirectionDebit:
		return tx.AffectsBalance, true
	}
	return domain.DirectionUnknown, false
}

func byCategoryHint(tx domain.Transaction) (domain.Direction, bool) {
	if tx.Category == "" {
		return domain.DirectionUnknown, false
	}
	cat := strings.ToLower(tx.Category)
	for _, term := range expenseTerms {
		if strings.Contains(cat, term) {
			return domain.DirectionDebit, true
		}
	}
	for _, term := range incomeTerms {
		if strings.Contains(cat, term) {
			return domain.DirectionCredit, true
		}
	}
	return domain.DirectionUnknown, false
}

func byAmountSign(tx domain.Transaction) (domain.Direction, bool) {
	if tx.Amount.IsPositive() {
		return domain.DirectionCredit, true
	}
	return domain.DirectionDebit, true
}

// Aggregate folds a set of transactions into overall and per-method totals.
// Magnitudes always use the absolute amount, so debit totals come out
// positive. Input order is irrelevant to the result.
func Aggregate(txs []domain.Transaction) Result {
	res := Result{
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
		TotalAmount: decimal.Zero,
		PerMethod:   []domain.PaymentMethodTotal{},
	}

	byMethod := make(map[string]*domain.PaymentMethodTotal)

	for _, tx := range txs {
		amount := tx.Amount.Abs()
		name := paymethod.Canonical(tx)

		mt, ok := byMethod[name]
		if !ok {
			mt = &domain.PaymentMethodTotal{
				Name:   name,
				Credit: decimal.Zero,
				Debit:  decimal.Zero,
			}
			byMethod[name] = mt
		}

		switch Classify(tx) {
		case domain.DirectionCredit:
			res.TotalCredit = res.TotalCredit.Add(amount)
			mt.Credit = mt.Credit.Add(amount)
		case domain.DirectionDebit:
			res.TotalDebit = res.TotalDebit.Add(amount)
			mt.Debit = mt.Debit.Add(amount)
		}
	}

	names := make([]string, 0, len(byMethod))
	for name := range byMethod {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mt := byMethod[name]
		mt.Total = mt.Credit.Sub(mt.Debit)
		res.PerMethod = append(res.PerMethod, *mt)
	}

	res.TotalAmount = res.TotalCredit.Sub(res.TotalDebit)
	return res
}

// Package bigquery implements the transaction feed and closure store
// against BigQuery: the ledger lands register movements in
// <dataset>.register_transactions, closures are frozen into
// <dataset>.cash_closures and the per-register watermark lives in
// <dataset>.closure_watermark.
package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dmolina/cash-closure/internal/domain"
)

const (
	transactionsTable = "register_transactions"
	closuresTable     = "cash_closures"
	watermarkTable    = "closure_watermark"

	// numericScale bounds decimal→NUMERIC conversions on read. BigQuery
	// NUMERIC carries 9 fractional digits.
	numericScale = 9
)

// transactionRow mirrors one register_transactions row.
type transactionRow struct {
	TransactionID string              `bigquery:"transaction_id"` // REQUIRED
	Amount        *big.Rat            `bigquery:"amount"`         // REQUIRED NUMERIC
	OccurredTS    time.Time           `bigquery:"occurred_ts"`    // REQUIRED
	OccurredLocal bigquery.NullString `bigquery:"occurred_local"` // NULLABLE, display only

	MethodTag     bigquery.NullString `bigquery:"method_tag"`      // NULLABLE
	MethodRefID   bigquery.NullString `bigquery:"method_ref_id"`   // NULLABLE
	MethodRefName bigquery.NullString `bigquery:"method_ref_name"` // NULLABLE

	AffectsBalance bigquery.NullString `bigquery:"affects_balance"` // NULLABLE: credit|debit
	Category       bigquery.NullString `bigquery:"category"`        // NULLABLE
}

func (r *transactionRow) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:            r.TransactionID,
		Amount:        ratToDecimal(r.Amount),
		OccurredAt:    r.OccurredTS.UTC(),
		OccurredLocal: r.OccurredLocal.StringVal,
		MethodTag:     r.MethodTag.StringVal,
		Category:      r.Category.StringVal,
	}
	if r.MethodRefName.Valid && r.MethodRefName.StringVal != "" {
		tx.MethodRef = &domain.PaymentMethodRef{
			ID:          r.MethodRefID.StringVal,
			DisplayName: r.MethodRefName.StringVal,
		}
	}
	switch r.AffectsBalance.StringVal {
	case string(domain.DirectionCredit):
		tx.AffectsBalance = domain.DirectionCredit
	case string(domain.DirectionDebit):
		tx.AffectsBalance = domain.DirectionDebit
	}
	return tx
}

// closureRow mirrors one cash_closures row. Per-method totals are stored as a
// JSON string column so the record round-trips without a repeated schema.
type closureRow struct {
	ClosureID   string    `bigquery:"closure_id"`
	RegisterID  string    `bigquery:"register_id"`
	PeriodStart time.Time `bigquery:"period_start"`
	PeriodEnd   time.Time `bigquery:"period_end"`
	Status      string    `bigquery:"status"`

	TotalCredit *big.Rat `bigquery:"total_credit"`
	TotalDebit  *big.Rat `bigquery:"total_debit"`
	TotalAmount *big.Rat `bigquery:"total_amount"`

	MethodTotals bigquery.NullString `bigquery:"method_totals"`

	ClosedTS bigquery.NullTimestamp `bigquery:"closed_ts"`
	ClosedBy bigquery.NullString    `bigquery:"closed_by"`
}

func (r *closureRow) toDomain() (*domain.CashClosure, error) {
	c := &domain.CashClosure{
		ID:             r.ClosureID,
		PeriodStart:    r.PeriodStart.UTC(),
		PeriodEnd:      r.PeriodEnd.UTC(),
		Status:         domain.ClosureStatus(r.Status),
		TotalCredit:    ratToDecimal(r.TotalCredit),
		TotalDebit:     ratToDecimal(r.TotalDebit),
		TotalAmount:    ratToDecimal(r.TotalAmount),
		PaymentMethods: []domain.PaymentMethodTotal{},
		ClosedBy:       r.ClosedBy.StringVal,
	}
	if r.ClosedTS.Valid {
		at := r.ClosedTS.Timestamp.UTC()
		c.ClosedAt = &at
	}
	if r.MethodTotals.Valid && r.MethodTotals.StringVal != "" {
		if err := json.Unmarshal([]byte(r.MethodTotals.StringVal), &c.PaymentMethods); err != nil {
			return nil, fmt.Errorf("closure %s: decoding method totals: %w", r.ClosureID, err)
		}
	}
	return c, nil
}

func marshalMethodTotals(totals []domain.PaymentMethodTotal) (string, error) {
	if totals == nil {
		totals = []domain.PaymentMethodTotal{}
	}
	b, err := json.Marshal(totals)
	if err != nil {
		return "", fmt.Errorf("encoding method totals: %w", err)
	}
	return string(b), nil
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, numericScale)
}

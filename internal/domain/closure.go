package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosureStatus is the lifecycle state of a cash closure.
type ClosureStatus string

const (
	// ClosureStatusOpen marks the transient, re-derived view of the current
	// period. Open closures are never persisted.
	ClosureStatusOpen ClosureStatus = "open"
	// ClosureStatusClosed marks a persisted, immutable closure record.
	// closed is terminal: there is no closed → open transition.
	ClosureStatusClosed ClosureStatus = "closed"
)

// PaymentMethodTotal accumulates credit and debit for one canonical payment
// method within a period. Total is always Credit - Debit and debit magnitudes
// are stored as positive numbers.
type PaymentMethodTotal struct {
	Name   string          `json:"name"`
	Credit decimal.Decimal `json:"credit"`
	Debit  decimal.Decimal `json:"debit"`
	Total  decimal.Decimal `json:"total"`
}

// CashClosure covers the half-open accounting period [PeriodStart, PeriodEnd)
// and its aggregated totals.
//
// An open closure is a computed view re-derived from the live feed on every
// read; it carries no ID. A closed closure is created exactly once by the
// closure manager and every field is immutable from then on.
type CashClosure struct {
	ID string `json:"id,omitempty"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Status ClosureStatus `json:"status"`

	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	// TotalAmount = TotalCredit - TotalDebit.
	TotalAmount decimal.Decimal `json:"total_amount"`

	// PaymentMethods holds one entry per distinct canonical payment method
	// observed in the period, sorted by name. Empty (never nil) when the
	// period had no activity.
	PaymentMethods []PaymentMethodTotal `json:"payment_method_totals"`

	// ClosedAt and ClosedBy are set only when Status is closed.
	ClosedAt *time.Time `json:"closed_at,omitempty"`
	ClosedBy string     `json:"closed_by,omitempty"`
}

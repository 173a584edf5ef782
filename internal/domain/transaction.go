package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies how a transaction affects the cash balance.
type Direction string

const (
	// DirectionCredit marks money entering the register.
	DirectionCredit Direction = "credit"
	// DirectionDebit marks money leaving the register.
	DirectionDebit Direction = "debit"
	// DirectionUnknown means the ledger did not classify the movement;
	// the aggregation engine falls back to category and sign heuristics.
	DirectionUnknown Direction = ""
)

// PaymentMethodRef is an optional reference object attached to a transaction
// by the ledger, carrying a human display name for the payment method.
type PaymentMethodRef struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
}

// Transaction is one normalized monetary movement observed from the ledger
// feed. Instances are immutable once read; this subsystem never mutates or
// deletes them.
type Transaction struct {
	ID string `json:"id"`

	// Amount is signed as recorded upstream. The sign is NOT authoritative
	// for credit/debit classification; AffectsBalance is.
	Amount decimal.Decimal `json:"amount"`

	// OccurredAt is the movement timestamp in UTC.
	OccurredAt time.Time `json:"occurred_at"`

	// OccurredLocal is a pre-rendered local-time string supplied by the
	// ledger for display. It must never be parsed back for logic.
	OccurredLocal string `json:"occurred_local,omitempty"`

	// MethodTag is the raw coded payment method tag (e.g. "tarjeta-debito").
	// Empty when the ledger recorded no tag.
	MethodTag string `json:"method_tag,omitempty"`

	// MethodRef is an optional payment method reference object.
	MethodRef *PaymentMethodRef `json:"method_ref,omitempty"`

	// AffectsBalance is the authoritative credit/debit classification from
	// the transaction's type metadata, when known.
	AffectsBalance Direction `json:"affects_balance,omitempty"`

	// Category is a free-text grouping used only as a fallback
	// classification hint.
	Category string `json:"category,omitempty"`
}

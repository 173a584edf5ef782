package paymethod

import (
	"testing"

	"github.com/dmolina/cash-closure/internal/domain"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
		want string
	}{
		{
			name: "cash tag",
			tx:   domain.Transaction{MethodTag: "efectivo"},
			want: "Efectivo",
		},
		{
			name: "cash tag with odd casing and spaces",
			tx:   domain.Transaction{MethodTag: "  Efectivo "},
			want: "Efectivo",
		},
		{
			name: "debit card short tag",
			tx:   domain.Transaction{MethodTag: "tarjeta-debito"},
			want: "Tarjeta de Débito",
		},
		{
			name: "debit card long tag",
			tx:   domain.Transaction{MethodTag: "tarjeta-de-debito"},
			want: "Tarjeta de Débito",
		},
		{
			name: "bare card tag means credit card",
			tx:   domain.Transaction{MethodTag: "tarjeta"},
			want: "Tarjeta de Crédito",
		},
		{
			name: "credit card tags",
			tx:   domain.Transaction{MethodTag: "tarjeta-de-credito"},
			want: "Tarjeta de Crédito",
		},
		{
			name: "bank transfer",
			tx:   domain.Transaction{MethodTag: "transferencia-bancaria"},
			want: "Transferencia Bancaria",
		},
		{
			name: "unrecognized tag is title-cased",
			tx:   domain.Transaction{MethodTag: "mercado-pago"},
			want: "Mercado Pago",
		},
		{
			name: "tag with inner spaces normalizes before lookup",
			tx:   domain.Transaction{MethodTag: "Tarjeta Debito"},
			want: "Tarjeta de Débito",
		},
		{
			name: "reference display name used when no tag",
			tx: domain.Transaction{
				MethodRef: &domain.PaymentMethodRef{DisplayName: "Cheque"},
			},
			want: "Cheque",
		},
		{
			name: "store pickup sentinel is cash",
			tx: domain.Transaction{
				MethodRef: &domain.PaymentMethodRef{DisplayName: "Pago en Tienda"},
			},
			want: "Efectivo",
		},
		{
			name: "no method information defaults to cash",
			tx:   domain.Transaction{},
			want: "Efectivo",
		},
		{
			name: "empty reference display name falls through to default",
			tx: domain.Transaction{
				MethodRef: &domain.PaymentMethodRef{DisplayName: ""},
			},
			want: "Efectivo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonical(tt.tx)
			if got != tt.want {
				t.Errorf("Canonical() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A cash tag together with the store-pickup display name must resolve to cash
// and nothing else, regardless of which rule fires first.
func TestCanonical_CashIsSticky(t *testing.T) {
	tx := domain.Transaction{
		MethodTag: "efectivo",
		MethodRef: &domain.PaymentMethodRef{DisplayName: "Pago en Tienda"},
	}
	if got := Canonical(tx); got != Cash {
		t.Errorf("Canonical() = %q, want %q", got, Cash)
	}
}

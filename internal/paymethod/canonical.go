// Package paymethod maps free-form and coded payment method identifiers to
// one fixed display name per method, so aggregation groups reliably.
package paymethod

import (
	"strings"
	"unicode"

	"github.com/dmolina/cash-closure/internal/domain"
)

// Cash is the canonical name for cash payments and the default when a
// transaction carries no usable payment method information.
const Cash = "Efectivo"

// storePickupName is a legacy display name some point-of-sale records carry
// for cash paid at the counter. It is an alias for Cash, never its own bucket.
const storePickupName = "Pago en Tienda"

// aliases maps normalized coded tags to canonical display names.
var aliases = map[string]string{
	"efectivo":               Cash,
	"tarjeta":                "Tarjeta de Crédito",
	"tarjeta-credito":        "Tarjeta de Crédito",
	"tarjeta-de-credito":     "Tarjeta de Crédito",
	"tarjeta-debito":         "Tarjeta de Débito",
	"tarjeta-de-debito":      "Tarjeta de Débito",
	"transferencia":          "Transferencia Bancaria",
	"transferencia-bancaria": "Transferencia Bancaria",
}

// Canonical resolves the canonical payment method name for a transaction.
//
// Priority, first match wins:
//  1. the coded tag, via the alias table; unrecognized tags are title-cased
//     word by word and used verbatim
//  2. the reference object's display name, with the store-pickup sentinel
//     treated as cash
//  3. the cash default
//
// Because the first matching rule is final, a tag or reference that resolves
// to cash can never be overridden by a later rule.
func Canonical(tx domain.Transaction) string {
	if tag := normalizeTag(tx.MethodTag); tag != "" {
		if name, ok := aliases[tag]; ok {
			return name
		}
		return titleWords(tag)
	}

	if tx.MethodRef != nil && tx.MethodRef.DisplayName != "" {
		if tx.MethodRef.DisplayName == storePickupName {
			return Cash
		}
		return tx.MethodRef.DisplayName
	}

	return Cash
}

// normalizeTag lowercases and trims a coded tag and collapses inner spaces to
// hyphens so "Tarjeta Debito" and "tarjeta-debito" hit the same alias entry.
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.Join(strings.Fields(tag), "-")
}

// titleWords renders an unrecognized tag like "mercado-pago" as "Mercado Pago".
func titleWords(tag string) string {
	words := strings.Split(tag, "-")
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

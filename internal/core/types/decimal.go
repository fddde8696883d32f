// Package types provides common type aliases and decimal helpers.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity represents an inventory quantity with full decimal precision.
// Stock quantities are stored as NUMERIC(12,2); arithmetic happens on
// decimal.Decimal to avoid floating-point drift over long movement chains.
type Quantity = decimal.Decimal

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// QuantityScale is the number of fractional digits persisted for quantities,
// matching NUMERIC(12,2) in the stock tables.
const QuantityScale = 2

// NewQuantity parses a decimal string into a Quantity.
// This is the preferred constructor; floats lose precision.
func NewQuantity(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a decimal string, panicking on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// QuantityFromFloat converts a float to a Quantity rounded to storage scale.
func QuantityFromFloat(f float64) Quantity {
	return decimal.NewFromFloat(f).Round(QuantityScale)
}

// Zero returns the zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// One returns decimal 1, the fixed consumption of a packaging supply per lot.
func One() decimal.Decimal {
	return decimal.NewFromInt(1)
}

// RoundQty rounds to the storage scale of stock quantities.
func RoundQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// GramsToKilos converts a grams-per-kilo formula ratio applied to an output
// weight (kg) into the chemical's storage unit (kg). Chemical stock is kept
// in kilograms, so the grams figure divides by 1000.
func GramsToKilos(gramsPerKilo, outputWeightKg Quantity) Quantity {
	grams := gramsPerKilo.Mul(outputWeightKg)
	return RoundQty(grams.Div(decimal.NewFromInt(1000)))
}

// MustMoney parses a monetary string, panicking on error.
func MustMoney(s string) Money {
	return MustQuantity(s)
}

// Package formula provides color formula recipes: per-chemical
// grams-per-kilogram ratios applied against a production order's output
// weight. The ledger reads formulas; it never mutates them.
package formula

import (
	"context"
	"strings"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Formula is a named recipe.
type Formula struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Line maps one chemical to its dosage ratio.
type Line struct {
	FormulaID         id.ID          `db:"formula_id" json:"formulaId"`
	ChemicalProductID id.ID          `db:"chemical_product_id" json:"chemicalProductId"`
	GramsPerKilo      types.Quantity `db:"grams_per_kilo" json:"gramsPerKilo"`
}

// RequiredKilos computes the chemical quantity consumed by an output weight,
// converted to the chemical's storage unit (kilograms).
func (l Line) RequiredKilos(outputWeightKg types.Quantity) types.Quantity {
	return types.GramsToKilos(l.GramsPerKilo, outputWeightKg)
}

// Validate checks recipe-level constraints.
func (f *Formula) Validate(ctx context.Context) error {
	if strings.TrimSpace(f.Code) == "" {
		return apperror.NewValidation("formula code is required")
	}
	if strings.TrimSpace(f.Name) == "" {
		return apperror.NewValidation("formula name is required")
	}
	return nil
}

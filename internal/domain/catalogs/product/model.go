// Package product provides the product catalog consumed by the inventory
// ledger: fabrics under production, formula chemicals, and packaging
// supplies. Reference-data validity (existence, uniqueness of codes) is the
// caller's concern before ledger operations run; the catalog itself is CRUD.
package product

import (
	"context"
	"strings"
	"time"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Kind classifies a product for consumption rules.
type Kind string

const (
	// KindFabric is a produced/transformed textile good.
	KindFabric Kind = "fabric"
	// KindChemical is a formula input consumed proportionally to output weight.
	KindChemical Kind = "chemical"
	// KindSupply is an auxiliary packaging consumable, one unit per lot.
	KindSupply Kind = "supply"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFabric, KindChemical, KindSupply:
		return true
	}
	return false
}

// Product is a catalog item.
type Product struct {
	ID          id.ID          `db:"id" json:"id"`
	Code        string         `db:"code" json:"code"`
	Description string         `db:"description" json:"description"`
	Kind        Kind           `db:"kind" json:"kind"`
	Unit        string         `db:"unit" json:"unit"`
	MinStock    types.Quantity `db:"min_stock" json:"minStock"`
	BasePrice   types.Money    `db:"base_price" json:"basePrice"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with required fields.
func NewProduct(code, description string, kind Kind, unit string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:          id.New(),
		Code:        code,
		Description: description,
		Kind:        kind,
		Unit:        unit,
		MinStock:    types.Zero(),
		BasePrice:   types.Zero(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks catalog-level constraints.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("product code is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return apperror.NewValidation("product description is required")
	}
	if !p.Kind.Valid() {
		return apperror.NewValidation("invalid product kind").
			WithDetail("kind", string(p.Kind))
	}
	if p.MinStock.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative")
	}
	return nil
}

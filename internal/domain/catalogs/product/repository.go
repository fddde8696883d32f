package product

import (
	"context"

	"texcore/internal/core/id"
)

// Repository defines storage operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Kind   *Kind
	Search string
	Limit  int
	Offset int
}

package dto

import (
	"time"

	"texcore/internal/core/types"
	"texcore/internal/domain/catalogs/product"
)

// CreateProductRequest adds a catalog item.
type CreateProductRequest struct {
	Code        string          `json:"code" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Kind        string          `json:"kind" binding:"required"`
	Unit        string          `json:"unit"`
	MinStock    *types.Quantity `json:"minStock"`
	BasePrice   *types.Money    `json:"basePrice"`
}

// UpdateProductRequest changes catalog fields; nil fields stay untouched.
type UpdateProductRequest struct {
	Description *string         `json:"description"`
	Unit        *string         `json:"unit"`
	MinStock    *types.Quantity `json:"minStock"`
	BasePrice   *types.Money    `json:"basePrice"`
}

// ListProductsQuery narrows catalog listings.
type ListProductsQuery struct {
	Kind   string `form:"kind"`
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ProductResponse represents a catalog item in API responses.
type ProductResponse struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Kind        string         `json:"kind"`
	Unit        string         `json:"unit"`
	MinStock    types.Quantity `json:"minStock"`
	BasePrice   types.Money    `json:"basePrice"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// FromProduct converts a catalog item to its response DTO.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		Description: p.Description,
		Kind:        string(p.Kind),
		Unit:        p.Unit,
		MinStock:    p.MinStock,
		BasePrice:   p.BasePrice,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

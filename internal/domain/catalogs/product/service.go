package product

import (
	"context"
	"fmt"

	"texcore/internal/core/id"
	"texcore/pkg/logger"
)

// Service provides catalog operations for products.
type Service struct {
	repo Repository
}

// NewService creates a product catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code)
	return nil
}

// Update validates and stores catalog changes.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

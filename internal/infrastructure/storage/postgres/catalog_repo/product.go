// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/domain/catalogs/product"
	"texcore/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// pgUniqueViolation is the SQLSTATE for unique constraint errors.
const pgUniqueViolation = "23505"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product catalog repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var productColumns = []string{
	"id", "code", "description", "kind", "unit",
	"min_stock", "base_price", "created_at", "updated_at",
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.Code, p.Description, p.Kind, p.Unit,
			p.MinStock, p.BasePrice, p.CreatedAt, p.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// Update persists catalog changes.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("code", p.Code).
		Set("description", p.Description).
		Set("kind", p.Kind).
		Set("unit", p.Unit).
		Set("min_stock", p.MinStock).
		Set("base_price", p.BasePrice).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetByCode retrieves a product by its unique code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"code": code}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", code)
		}
		return nil, fmt.Errorf("get product by code: %w", err)
	}

	return &p, nil
}

// List returns catalog items matching the filter, code ascending.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable)

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"description": pattern},
		})
	}

	q = q.OrderBy("code ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)

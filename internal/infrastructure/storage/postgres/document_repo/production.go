// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/domain/documents/production"
	"texcore/internal/infrastructure/storage/postgres"
)

const (
	productionOrdersTable = "doc_production_orders"
	productionLotsTable   = "doc_production_lots"
)

const pgUniqueViolation = "23505"

// ProductionRepo implements production.Repository.
type ProductionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductionRepo creates a new production document repository.
func NewProductionRepo(txManager *postgres.TxManager) *ProductionRepo {
	return &ProductionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetOrder loads a production order read model.
func (r *ProductionRepo) GetOrder(ctx context.Context, orderID id.ID) (production.Order, error) {
	var order production.Order

	q := r.builder.Select(
		"id", "product_id", "warehouse_id", "formula_id", "required_weight",
	).From(productionOrdersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return order, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return order, apperror.NewNotFound("production order", orderID.String())
		}
		return order, fmt.Errorf("get production order: %w", err)
	}

	return order, nil
}

// CreateLot inserts a new lot; a duplicate code is a conflict.
func (r *ProductionRepo) CreateLot(ctx context.Context, lot production.Lot) error {
	q := r.builder.Insert(productionLotsTable).
		Columns("id", "code", "order_id", "operator", "machine", "shift",
			"started_at", "ended_at", "net_weight", "created_at").
		Values(lot.ID, lot.Code, lot.OrderID, lot.Operator, lot.Machine, lot.Shift,
			lot.StartedAt, lot.EndedAt, lot.NetWeight, lot.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("lot", "code", lot.Code)
		}
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetLot loads a lot by id.
func (r *ProductionRepo) GetLot(ctx context.Context, lotID id.ID) (production.Lot, error) {
	var lot production.Lot

	q := r.builder.Select(
		"id", "code", "order_id", "operator", "machine", "shift",
		"started_at", "ended_at", "net_weight", "created_at",
	).From(productionLotsTable).
		Where(squirrel.Eq{"id": lotID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return lot, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return lot, apperror.NewNotFound("lot", lotID.String())
		}
		return lot, fmt.Errorf("get lot: %w", err)
	}

	return lot, nil
}

// DeleteLot permanently removes a rejected lot.
func (r *ProductionRepo) DeleteLot(ctx context.Context, lotID id.ID) error {
	q := r.builder.Delete(productionLotsTable).
		Where(squirrel.Eq{"id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}

	return nil
}

// ListSupplyRows returns stock rows in the warehouse whose product is a
// packaging supply with at least one unit on hand. Rows are locked so the
// subsequent per-row debit cannot race a concurrent registration.
func (r *ProductionRepo) ListSupplyRows(ctx context.Context, warehouseID id.ID) ([]entity.StockRow, error) {
	sql := `
		SELECT s.id, s.warehouse_id, s.product_id, s.lot_id, s.quantity, s.updated_at
		FROM reg_stock_rows s
		JOIN cat_products p ON p.id = s.product_id
		WHERE s.warehouse_id = $1
		  AND p.kind = 'supply'
		  AND s.quantity >= 1
		ORDER BY p.code ASC
		FOR UPDATE OF s
	`

	var rows []entity.StockRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, warehouseID); err != nil {
		return nil, fmt.Errorf("select supply rows: %w", err)
	}

	return rows, nil
}

// Ensure interface compliance.
var _ production.Repository = (*ProductionRepo)(nil)

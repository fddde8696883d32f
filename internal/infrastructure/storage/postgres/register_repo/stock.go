// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
	"texcore/internal/domain/registers/stock"
	"texcore/internal/infrastructure/storage/postgres"
)

const (
	stockRowsTable     = "reg_stock_rows"
	movementsTable     = "reg_inventory_movements"
	movementAuditTable = "reg_movement_audit"
)

// StockRepo implements stock.Repository against PostgreSQL.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new inventory ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetRowForUpdate returns the row for a key with a pessimistic lock.
// The lock is held until the enclosing transaction commits.
func (r *StockRepo) GetRowForUpdate(ctx context.Context, warehouseID, productID id.ID, lotID *id.ID) (entity.StockRow, bool, error) {
	var row entity.StockRow

	// lot_id IS NULL and lot_id = $n need different predicates, squirrel's
	// Eq handles nil but FOR UPDATE forces raw SQL anyway.
	var sql string
	args := []any{warehouseID, productID}
	if lotID == nil {
		sql = `
			SELECT id, warehouse_id, product_id, lot_id, quantity, updated_at
			FROM reg_stock_rows
			WHERE warehouse_id = $1 AND product_id = $2 AND lot_id IS NULL
			FOR UPDATE
		`
	} else {
		sql = `
			SELECT id, warehouse_id, product_id, lot_id, quantity, updated_at
			FROM reg_stock_rows
			WHERE warehouse_id = $1 AND product_id = $2 AND lot_id = $3
			FOR UPDATE
		`
		args = append(args, *lotID)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockRow{}, false, nil
		}
		return entity.StockRow{}, false, fmt.Errorf("get stock row for update: %w", err)
	}

	return row, true, nil
}

// AddRowQuantity credits delta onto a key, creating the row when absent.
// The upsert targets the partial unique index matching the lot shape, so a
// concurrent first-writer collision degrades to an update.
func (r *StockRepo) AddRowQuantity(ctx context.Context, warehouseID, productID id.ID, lotID *id.ID, delta types.Quantity) (entity.StockRow, error) {
	var row entity.StockRow

	var sql string
	args := []any{id.New(), warehouseID, productID, delta}
	if lotID == nil {
		sql = `
			INSERT INTO reg_stock_rows (id, warehouse_id, product_id, lot_id, quantity, updated_at)
			VALUES ($1, $2, $3, NULL, $4, now())
			ON CONFLICT (warehouse_id, product_id) WHERE lot_id IS NULL
			DO UPDATE SET quantity = reg_stock_rows.quantity + EXCLUDED.quantity, updated_at = now()
			RETURNING id, warehouse_id, product_id, lot_id, quantity, updated_at
		`
	} else {
		sql = `
			INSERT INTO reg_stock_rows (id, warehouse_id, product_id, lot_id, quantity, updated_at)
			VALUES ($1, $2, $3, $5, $4, now())
			ON CONFLICT (warehouse_id, product_id, lot_id) WHERE lot_id IS NOT NULL
			DO UPDATE SET quantity = reg_stock_rows.quantity + EXCLUDED.quantity, updated_at = now()
			RETURNING id, warehouse_id, product_id, lot_id, quantity, updated_at
		`
		args = append(args, *lotID)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		return entity.StockRow{}, fmt.Errorf("upsert stock row: %w", err)
	}

	return row, nil
}

// SetRowQuantity overwrites a locked row's quantity.
func (r *StockRepo) SetRowQuantity(ctx context.Context, rowID id.ID, qty types.Quantity) error {
	q := r.builder.Update(stockRowsTable).
		Set("quantity", qty).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": rowID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock row", rowID.String())
	}

	return nil
}

var movementColumns = []string{
	"id", "occurred_at", "kind", "product_id", "lot_id",
	"source_warehouse_id", "dest_warehouse_id",
	"quantity", "doc_ref", "actor", "resulting_balance",
	"edited", "last_edited_at",
}

// InsertEntries appends journal entries. Batches use COPY when inside a
// transaction, which is the normal calling convention.
func (r *StockRepo) InsertEntries(ctx context.Context, entries []entity.MovementEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil && len(entries) > 1 {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.Timestamp, e.Kind, e.ProductID, e.LotID,
				e.SourceWarehouseID, e.DestWarehouseID,
				e.Quantity, e.DocRef, e.Actor, e.ResultingBalance,
				e.Edited, e.LastEditedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.Timestamp, e.Kind, e.ProductID, e.LotID,
			e.SourceWarehouseID, e.DestWarehouseID,
			e.Quantity, e.DocRef, e.Actor, e.ResultingBalance,
			e.Edited, e.LastEditedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetEntryForUpdate loads one journal entry with a pessimistic lock.
func (r *StockRepo) GetEntryForUpdate(ctx context.Context, entryID id.ID) (entity.MovementEntry, error) {
	var e entity.MovementEntry

	sql := `
		SELECT id, occurred_at, kind, product_id, lot_id,
		       source_warehouse_id, dest_warehouse_id,
		       quantity, doc_ref, actor, resulting_balance,
		       edited, last_edited_at
		FROM reg_inventory_movements
		WHERE id = $1
		FOR UPDATE
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &e, sql, entryID); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("movement", entryID.String())
		}
		return e, fmt.Errorf("get movement for update: %w", err)
	}

	return e, nil
}

// UpdateEntry persists a corrected entry in place.
func (r *StockRepo) UpdateEntry(ctx context.Context, e entity.MovementEntry) error {
	q := r.builder.Update(movementsTable).
		Set("quantity", e.Quantity).
		Set("doc_ref", e.DocRef).
		Set("resulting_balance", e.ResultingBalance).
		Set("edited", e.Edited).
		Set("last_edited_at", e.LastEditedAt).
		Where(squirrel.Eq{"id": e.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", e.ID.String())
	}

	return nil
}

// ListMovements returns every entry touching the warehouse as source or
// destination for the product, oldest first. Kardex replay depends on this
// ordering.
func (r *StockRepo) ListMovements(ctx context.Context, warehouseID, productID id.ID) ([]entity.MovementEntry, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Or{
			squirrel.Eq{"source_warehouse_id": warehouseID},
			squirrel.Eq{"dest_warehouse_id": warehouseID},
		}).
		OrderBy("occurred_at ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.MovementEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return entries, nil
}

// InsertAuditEntries appends audit trail rows for a correction.
func (r *StockRepo) InsertAuditEntries(ctx context.Context, rows []entity.AuditEntry) error {
	if len(rows) == 0 {
		return nil
	}

	q := r.builder.Insert(movementAuditTable).Columns(
		"id", "movement_id", "field", "old_value", "new_value",
		"reason", "actor", "changed_at",
	)
	for _, a := range rows {
		q = q.Values(a.ID, a.MovementID, a.Field, a.OldValue, a.NewValue, a.Reason, a.Actor, a.Timestamp)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entries: %w", err)
	}

	return nil
}

// ListAuditEntries returns the correction trail for one movement, newest first.
func (r *StockRepo) ListAuditEntries(ctx context.Context, movementID id.ID) ([]entity.AuditEntry, error) {
	q := r.builder.Select(
		"id", "movement_id", "field", "old_value", "new_value",
		"reason", "actor", "changed_at",
	).From(movementAuditTable).
		Where(squirrel.Eq{"movement_id": movementID}).
		OrderBy("changed_at DESC", "id DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []entity.AuditEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}

	return rows, nil
}

// lowStockQuery aggregates on-hand quantity per (warehouse, product) across
// bulk and lot rows, and reports totals below a positive product minimum.
const lowStockQuery = `
	SELECT s.warehouse_id,
	       w.name AS warehouse,
	       s.product_id,
	       p.code AS product_code,
	       p.description AS product,
	       SUM(s.quantity) AS quantity,
	       p.min_stock,
	       p.min_stock - SUM(s.quantity) AS shortfall
	FROM reg_stock_rows s
	JOIN cat_products p ON p.id = s.product_id
	JOIN cat_warehouses w ON w.id = s.warehouse_id
	WHERE p.min_stock > 0
	GROUP BY s.warehouse_id, w.name, s.product_id, p.code, p.description, p.min_stock
	HAVING SUM(s.quantity) < p.min_stock
	ORDER BY shortfall DESC
`

// ListLowStock runs the shortfall scan.
func (r *StockRepo) ListLowStock(ctx context.Context) ([]stock.LowStockAlert, error) {
	var alerts []stock.LowStockAlert
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &alerts, lowStockQuery); err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}

	return alerts, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)

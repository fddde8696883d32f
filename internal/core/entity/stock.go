// Package entity provides core domain entities for the inventory ledger.
package entity

import (
	"time"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// StockRow is the current on-hand quantity for one (warehouse, product, lot)
// key. A nil LotID means bulk stock of the product in the warehouse; a
// present LotID pins the quantity to a specific production batch. At most one
// row exists per key, enforced separately for the bulk and per-lot cases, so
// a warehouse may hold one bulk row and many lot rows of the same product.
//
// Rows are created on first credit, mutated in place afterwards, and never
// deleted; a row sitting at zero is legal. Quantity never goes negative:
// any operation that would is rejected before commit.
type StockRow struct {
	ID          id.ID          `db:"id" json:"id"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	LotID       *id.ID         `db:"lot_id" json:"lotId,omitempty"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewStockRow creates a zero-quantity row for a key.
func NewStockRow(warehouseID, productID id.ID, lotID *id.ID) StockRow {
	return StockRow{
		ID:          id.New(),
		WarehouseID: warehouseID,
		ProductID:   productID,
		LotID:       lotID,
		Quantity:    types.Zero(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// IsBulk reports whether the row holds ungrouped stock (no lot).
func (r *StockRow) IsBulk() bool {
	return r.LotID == nil
}

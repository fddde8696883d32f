// Package stock provides the inventory ledger: current stock rows per
// (warehouse, product, lot) key plus the append-style movement journal and
// its correction audit trail.
package stock

import (
	"context"
	"time"

	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Repository defines storage operations for the ledger.
//
// Row mutations must run inside the enclosing transaction: GetRowForUpdate
// takes an exclusive row lock held until commit, so concurrent operations on
// the same key serialize instead of racing on a stale quantity.
type Repository interface {
	// Row operations

	// GetRowForUpdate returns the row for a key with an exclusive lock,
	// or found=false when no row exists yet.
	GetRowForUpdate(ctx context.Context, warehouseID, productID id.ID, lotID *id.ID) (entity.StockRow, bool, error)

	// AddRowQuantity credits delta onto a key, creating the row when absent.
	// Creation is race-safe: a concurrent first-writer collision degrades to
	// an update instead of failing the transaction.
	AddRowQuantity(ctx context.Context, warehouseID, productID id.ID, lotID *id.ID, delta types.Quantity) (entity.StockRow, error)

	// SetRowQuantity overwrites a locked row's quantity.
	SetRowQuantity(ctx context.Context, rowID id.ID, qty types.Quantity) error

	// Journal

	// InsertEntries appends journal entries (batch when a single operation
	// posts several, e.g. formula consumption).
	InsertEntries(ctx context.Context, entries []entity.MovementEntry) error

	// GetEntryForUpdate loads one entry with a lock for the correction path.
	GetEntryForUpdate(ctx context.Context, entryID id.ID) (entity.MovementEntry, error)

	// UpdateEntry persists a corrected entry. Only the correction path may
	// call it; the journal is otherwise append-only.
	UpdateEntry(ctx context.Context, e entity.MovementEntry) error

	// ListMovements returns every entry touching the warehouse as source or
	// destination for the product, timestamp ascending.
	ListMovements(ctx context.Context, warehouseID, productID id.ID) ([]entity.MovementEntry, error)

	// Audit trail

	InsertAuditEntries(ctx context.Context, rows []entity.AuditEntry) error

	// ListAuditEntries returns a movement's correction rows, newest first.
	ListAuditEntries(ctx context.Context, movementID id.ID) ([]entity.AuditEntry, error)

	// Reporting

	// ListLowStock joins stock rows against product minimums and returns
	// rows below a positive minimum.
	ListLowStock(ctx context.Context) ([]LowStockAlert, error)
}

// SnapshotWriter archives a pre-correction image of a journal entry.
// The write rides the correction transaction.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, e entity.MovementEntry) error
}

// LowStockAlert is one shortfall reported by the scanner.
type LowStockAlert struct {
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	Warehouse   string         `db:"warehouse" json:"warehouse"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	ProductCode string         `db:"product_code" json:"productCode"`
	Product     string         `db:"product" json:"product"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	MinStock    types.Quantity `db:"min_stock" json:"minStock"`
	Shortfall   types.Quantity `db:"shortfall" json:"shortfall"`
}

// KardexLine is one row of the chronological running-balance report for a
// (warehouse, product) pair. Entrance is set when the warehouse receives,
// Exit when it ships; Balance is the replayed running total after the line.
type KardexLine struct {
	Timestamp time.Time           `json:"timestamp"`
	Kind      entity.MovementKind `json:"kind"`
	DocRef    *string             `json:"docRef,omitempty"`
	Entrance  *types.Quantity     `json:"entrance,omitempty"`
	Exit      *types.Quantity     `json:"exit,omitempty"`
	Balance   types.Quantity      `json:"balance"`
}

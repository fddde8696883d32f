package production

import (
	"context"

	"texcore/internal/core/entity"
	"texcore/internal/core/id"
)

// Repository defines storage operations for production documents.
type Repository interface {
	// GetOrder loads a production order read model.
	GetOrder(ctx context.Context, orderID id.ID) (Order, error)

	// CreateLot inserts a new lot; a duplicate code is a conflict.
	CreateLot(ctx context.Context, lot Lot) error

	// GetLot loads a lot by id.
	GetLot(ctx context.Context, lotID id.ID) (Lot, error)

	// DeleteLot permanently removes a rejected lot.
	DeleteLot(ctx context.Context, lotID id.ID) error

	// ListSupplyRows returns stock rows in the warehouse whose product is a
	// packaging supply, with at least one unit on hand.
	ListSupplyRows(ctx context.Context, warehouseID id.ID) ([]entity.StockRow, error)
}

// Package production provides lot registration and rejection reversal:
// the two multi-step atomic operations of the production floor.
package production

import (
	"time"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Lot is an identified production batch. Created by Register; hard-deleted
// by Reject. A rejected lot is defined as "never should have existed", so
// unlike every other entity it is destroyed rather than superseded.
type Lot struct {
	ID        id.ID          `db:"id" json:"id"`
	Code      string         `db:"code" json:"code"`
	OrderID   id.ID          `db:"order_id" json:"orderId"`
	Operator  string         `db:"operator" json:"operator"`
	Machine   string         `db:"machine" json:"machine"`
	Shift     string         `db:"shift" json:"shift"`
	StartedAt time.Time      `db:"started_at" json:"startedAt"`
	EndedAt   time.Time      `db:"ended_at" json:"endedAt"`
	NetWeight types.Quantity `db:"net_weight" json:"netWeight"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Order is the production order read model supplied by the production-floor
// subsystem. The ledger assumes the references were validated by the caller.
//
// Input and output share the ProductID: the system models a 1:1 transform
// (dye/finish operations), not BOM assembly.
type Order struct {
	ID             id.ID          `db:"id" json:"id"`
	ProductID      id.ID          `db:"product_id" json:"productId"`
	WarehouseID    id.ID          `db:"warehouse_id" json:"warehouseId"`
	FormulaID      *id.ID         `db:"formula_id" json:"formulaId,omitempty"`
	RequiredWeight types.Quantity `db:"required_weight" json:"requiredWeight"`
}

// RegisterInput carries everything Register needs for one lot.
type RegisterInput struct {
	OrderID   id.ID
	LotCode   string
	NetWeight types.Quantity

	// Optional packaging weights for the consistency check.
	GrossWeight *types.Quantity
	TareWeight  *types.Quantity

	Machine   string
	Shift     string
	StartedAt time.Time
	EndedAt   time.Time
	Actor     string
}

// WeightWarning flags a suspicious but non-blocking weight reading.
type WeightWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnNetTareMismatch = "NET_TARE_MISMATCH"
	WarnWeightDeviation = "WEIGHT_DEVIATION"
)

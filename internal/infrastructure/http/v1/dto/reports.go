package dto

import (
	"time"

	"texcore/internal/core/types"
	"texcore/internal/domain/registers/stock"
)

// KardexLineResponse is one row of the running-balance report.
type KardexLineResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	DocRef    *string         `json:"docRef,omitempty"`
	Entrance  *types.Quantity `json:"entrance,omitempty"`
	Exit      *types.Quantity `json:"exit,omitempty"`
	Balance   types.Quantity  `json:"balance"`
}

// FromKardexLine converts a kardex line to its response DTO.
func FromKardexLine(l stock.KardexLine) KardexLineResponse {
	return KardexLineResponse{
		Timestamp: l.Timestamp,
		Kind:      string(l.Kind),
		DocRef:    l.DocRef,
		Entrance:  l.Entrance,
		Exit:      l.Exit,
		Balance:   l.Balance,
	}
}

// LowStockAlertResponse is one shortfall reported by the scanner.
type LowStockAlertResponse struct {
	WarehouseID string         `json:"warehouseId"`
	Warehouse   string         `json:"warehouse"`
	ProductID   string         `json:"productId"`
	ProductCode string         `json:"productCode"`
	Product     string         `json:"product"`
	Quantity    types.Quantity `json:"quantity"`
	MinStock    types.Quantity `json:"minStock"`
	Shortfall   types.Quantity `json:"shortfall"`
}

// FromLowStockAlert converts a scanner alert to its response DTO.
func FromLowStockAlert(a stock.LowStockAlert) LowStockAlertResponse {
	return LowStockAlertResponse{
		WarehouseID: a.WarehouseID.String(),
		Warehouse:   a.Warehouse,
		ProductID:   a.ProductID.String(),
		ProductCode: a.ProductCode,
		Product:     a.Product,
		Quantity:    a.Quantity,
		MinStock:    a.MinStock,
		Shortfall:   a.Shortfall,
	}
}

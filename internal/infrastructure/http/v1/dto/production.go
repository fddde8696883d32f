package dto

import (
	"time"

	"texcore/internal/core/types"
	"texcore/internal/domain/documents/production"
)

// RegisterLotRequest registers one finished production lot.
type RegisterLotRequest struct {
	OrderID   string         `json:"orderId" binding:"required"`
	LotCode   string         `json:"lotCode" binding:"required"`
	NetWeight types.Quantity `json:"netWeight" binding:"required"`

	GrossWeight *types.Quantity `json:"grossWeight"`
	TareWeight  *types.Quantity `json:"tareWeight"`

	Machine   string    `json:"machine"`
	Shift     string    `json:"shift"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// LotResponse represents a production lot in API responses.
type LotResponse struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	OrderID   string         `json:"orderId"`
	Operator  string         `json:"operator"`
	Machine   string         `json:"machine"`
	Shift     string         `json:"shift"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt"`
	NetWeight types.Quantity `json:"netWeight"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FromLot converts a lot to its response DTO.
func FromLot(l production.Lot) LotResponse {
	return LotResponse{
		ID:        l.ID.String(),
		Code:      l.Code,
		OrderID:   l.OrderID.String(),
		Operator:  l.Operator,
		Machine:   l.Machine,
		Shift:     l.Shift,
		StartedAt: l.StartedAt,
		EndedAt:   l.EndedAt,
		NetWeight: l.NetWeight,
		CreatedAt: l.CreatedAt,
	}
}

// WeightWarningResponse flags a suspicious but accepted weight reading.
type WeightWarningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterLotResponse carries the registered lot plus any weight warnings.
type RegisterLotResponse struct {
	Lot      LotResponse             `json:"lot"`
	Warnings []WeightWarningResponse `json:"warnings,omitempty"`
}

// NewRegisterLotResponse builds the registration response.
func NewRegisterLotResponse(lot production.Lot, warnings []production.WeightWarning) RegisterLotResponse {
	resp := RegisterLotResponse{Lot: FromLot(lot)}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, WeightWarningResponse{Code: w.Code, Message: w.Message})
	}
	return resp
}

package dto

import (
	"encoding/json"
	"time"

	"texcore/internal/core/entity"
	"texcore/internal/core/types"
)

// --- Requests ---

// RecordMovementRequest posts one externally-recorded inventory fact.
type RecordMovementRequest struct {
	Kind              string         `json:"kind" binding:"required"`
	ProductID         string         `json:"productId" binding:"required"`
	LotID             *string        `json:"lotId"`
	SourceWarehouseID *string        `json:"sourceWarehouseId"`
	DestWarehouseID   *string        `json:"destWarehouseId"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	DocRef            *string        `json:"docRef"`
}

// TransferRequest moves stock between two warehouses.
type TransferRequest struct {
	ProductID         string         `json:"productId" binding:"required"`
	SourceWarehouseID string         `json:"sourceWarehouseId" binding:"required"`
	DestWarehouseID   string         `json:"destWarehouseId" binding:"required"`
	LotID             *string        `json:"lotId"`
	Quantity          types.Quantity `json:"quantity" binding:"required"`
	DocRef            *string        `json:"docRef"`
}

// CorrectMovementRequest amends a purchase journal entry post-hoc.
// Reason is mandatory and must carry enough text to be meaningful.
type CorrectMovementRequest struct {
	Quantity *types.Quantity `json:"quantity"`
	DocRef   *string         `json:"docRef"`
	Reason   string          `json:"reason" binding:"required"`
}

// --- Responses ---

// MovementResponse represents one journal entry in API responses.
type MovementResponse struct {
	ID                string         `json:"id"`
	OccurredAt        time.Time      `json:"occurredAt"`
	Kind              string         `json:"kind"`
	ProductID         string         `json:"productId"`
	LotID             *string        `json:"lotId,omitempty"`
	SourceWarehouseID *string        `json:"sourceWarehouseId,omitempty"`
	DestWarehouseID   *string        `json:"destWarehouseId,omitempty"`
	Quantity          types.Quantity `json:"quantity"`
	DocRef            *string        `json:"docRef,omitempty"`
	Actor             string         `json:"actor"`
	ResultingBalance  types.Quantity `json:"resultingBalance"`
	Edited            bool           `json:"edited"`
	LastEditedAt      *time.Time     `json:"lastEditedAt,omitempty"`
}

// FromMovement converts a journal entry to its response DTO.
func FromMovement(e entity.MovementEntry) MovementResponse {
	resp := MovementResponse{
		ID:               e.ID.String(),
		OccurredAt:       e.Timestamp,
		Kind:             string(e.Kind),
		ProductID:        e.ProductID.String(),
		Quantity:         e.Quantity,
		DocRef:           e.DocRef,
		Actor:            e.Actor,
		ResultingBalance: e.ResultingBalance,
		Edited:           e.Edited,
		LastEditedAt:     e.LastEditedAt,
	}
	if e.LotID != nil {
		s := e.LotID.String()
		resp.LotID = &s
	}
	if e.SourceWarehouseID != nil {
		s := e.SourceWarehouseID.String()
		resp.SourceWarehouseID = &s
	}
	if e.DestWarehouseID != nil {
		s := e.DestWarehouseID.String()
		resp.DestWarehouseID = &s
	}
	return resp
}

// AuditEntryResponse represents one correction trail row.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	MovementID string    `json:"movementId"`
	Field      string    `json:"field"`
	OldValue   string    `json:"oldValue"`
	NewValue   string    `json:"newValue"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	ChangedAt  time.Time `json:"changedAt"`
}

// FromAuditEntry converts an audit row to its response DTO.
func FromAuditEntry(a entity.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         a.ID.String(),
		MovementID: a.MovementID.String(),
		Field:      a.Field,
		OldValue:   a.OldValue,
		NewValue:   a.NewValue,
		Reason:     a.Reason,
		Actor:      a.Actor,
		ChangedAt:  a.Timestamp,
	}
}

// SnapshotResponse is one archived pre-correction image of a journal entry.
// Entry carries the full entry JSON as it stood before the correction.
type SnapshotResponse struct {
	ID         string          `json:"id"`
	MovementID string          `json:"movementId"`
	Entry      json.RawMessage `json:"entry"`
	CreatedAt  time.Time       `json:"createdAt"`
}

package entity

import (
	"time"

	"texcore/internal/core/id"
)

// Correctable movement fields recorded in the audit trail.
const (
	AuditFieldQuantity = "quantity"
	AuditFieldDocRef   = "doc_ref"
)

// AuditEntry records one field change on a corrected MovementEntry.
// A correction writes one entry per changed field. The trail is append-only:
// entries are never mutated or deleted, they exist purely for traceability.
type AuditEntry struct {
	ID         id.ID     `db:"id" json:"id"`
	MovementID id.ID     `db:"movement_id" json:"movementId"`
	Field      string    `db:"field" json:"field"`
	OldValue   string    `db:"old_value" json:"oldValue"`
	NewValue   string    `db:"new_value" json:"newValue"`
	Reason     string    `db:"reason" json:"reason"`
	Actor      string    `db:"actor" json:"actor"`
	Timestamp  time.Time `db:"changed_at" json:"changedAt"`
}

// NewAuditEntry records a single field change.
func NewAuditEntry(movementID id.ID, field, oldValue, newValue, reason, actor string) AuditEntry {
	return AuditEntry{
		ID:         id.New(),
		MovementID: movementID,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     reason,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
	}
}

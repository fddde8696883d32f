package entity

import (
	"time"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// MovementKind is the closed set of inventory-affecting event types.
type MovementKind string

const (
	KindPurchase       MovementKind = "purchase"
	KindProductionIn   MovementKind = "production-in"
	KindTransfer       MovementKind = "transfer"
	KindAdjustment     MovementKind = "adjustment"
	KindSale           MovementKind = "sale"
	KindCustomerReturn MovementKind = "customer-return"
	KindConsumption    MovementKind = "production-consumption"
)

// Valid reports whether k is a known movement kind.
func (k MovementKind) Valid() bool {
	switch k {
	case KindPurchase, KindProductionIn, KindTransfer, KindAdjustment,
		KindSale, KindCustomerReturn, KindConsumption:
		return true
	}
	return false
}

// Inbound reports whether the kind credits its destination warehouse.
// Transfer touches both sides and is handled by its own operation.
func (k MovementKind) Inbound() bool {
	switch k {
	case KindPurchase, KindProductionIn, KindCustomerReturn:
		return true
	}
	return false
}

// Editable reports whether the kind admits post-hoc correction.
// Only purchases may be corrected; everything else is immutable.
func (k MovementKind) Editable() bool {
	return k == KindPurchase
}

// MovementEntry is one immutable fact in the movement journal. Every
// inventory mutation appends exactly one entry per affected posting,
// carrying the resulting balance of the mutated row at the time of posting.
//
// Entries of kind purchase may later be corrected through the explicit
// correction path, which flips Edited and stamps LastEditedAt; all other
// entries are append-only forever.
type MovementEntry struct {
	ID        id.ID        `db:"id" json:"id"`
	Timestamp time.Time    `db:"occurred_at" json:"occurredAt"`
	Kind      MovementKind `db:"kind" json:"kind"`
	ProductID id.ID        `db:"product_id" json:"productId"`
	LotID     *id.ID       `db:"lot_id" json:"lotId,omitempty"`

	// SourceWarehouseID is set for outbound postings, DestWarehouseID for
	// inbound ones; transfers carry both.
	SourceWarehouseID *id.ID `db:"source_warehouse_id" json:"sourceWarehouseId,omitempty"`
	DestWarehouseID   *id.ID `db:"dest_warehouse_id" json:"destWarehouseId,omitempty"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	DocRef   *string        `db:"doc_ref" json:"docRef,omitempty"`
	Actor    string         `db:"actor" json:"actor"`

	// ResultingBalance is the affected stock row's quantity after this
	// posting (denormalized kardex aid; replay does not trust it).
	ResultingBalance types.Quantity `db:"resulting_balance" json:"resultingBalance"`

	Edited       bool       `db:"edited" json:"edited"`
	LastEditedAt *time.Time `db:"last_edited_at" json:"lastEditedAt,omitempty"`
}

// NewMovementEntry builds a journal entry stamped now.
func NewMovementEntry(kind MovementKind, productID id.ID, qty types.Quantity, actor string) MovementEntry {
	return MovementEntry{
		ID:        id.New(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		ProductID: productID,
		Quantity:  qty,
		Actor:     actor,
	}
}

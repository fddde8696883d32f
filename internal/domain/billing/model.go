// Package billing reconciles accumulated customer payments against open
// sales orders, oldest first. Orders and payments are owned by the sales
// subsystem; the reconciler reads them and mutates only the paid flag.
package billing

import (
	"time"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// OpenOrder is the reconciler's read model of a sales order: identity,
// age ordering, current paid flag, and the total as the sum of its detail
// lines' weight x unit price.
type OpenOrder struct {
	ID         id.ID       `db:"id" json:"id"`
	CustomerID id.ID       `db:"customer_id" json:"customerId"`
	DocRef     string      `db:"doc_ref" json:"docRef"`
	IssuedAt   time.Time   `db:"issued_at" json:"issuedAt"`
	Paid       bool        `db:"paid" json:"paid"`
	Total      types.Money `db:"total" json:"total"`
}

// Payment is a dated monetary credit against a customer.
type Payment struct {
	ID         id.ID       `db:"id" json:"id"`
	CustomerID id.ID       `db:"customer_id" json:"customerId"`
	Amount     types.Money `db:"amount" json:"amount"`
	ReceivedAt time.Time   `db:"received_at" json:"receivedAt"`
}

// Result summarizes a reconciliation run.
type Result struct {
	CustomerID   id.ID       `json:"customerId"`
	TotalPaid    types.Money `json:"totalPaid"`
	MarkedPaid   int         `json:"markedPaid"`
	MarkedUnpaid int         `json:"markedUnpaid"`
}

package billing

import (
	"context"

	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Repository defines the reconciler's storage operations.
type Repository interface {
	// SumPayments totals every payment the customer has made.
	SumPayments(ctx context.Context, customerID id.ID) (types.Money, error)

	// ListOrdersOldestFirst returns the customer's orders with line totals
	// precomputed, ordered by issue date ascending.
	ListOrdersOldestFirst(ctx context.Context, customerID id.ID) ([]OpenOrder, error)

	// SetOrderPaid flips one order's paid flag.
	SetOrderPaid(ctx context.Context, orderID id.ID, paid bool) error

	// OutstandingTotal sums the totals of the customer's unpaid orders.
	OutstandingTotal(ctx context.Context, customerID id.ID) (types.Money, error)
}

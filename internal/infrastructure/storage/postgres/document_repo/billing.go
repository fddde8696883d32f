package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
	"texcore/internal/domain/billing"
	"texcore/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable = "doc_sales_orders"
	paymentsTable    = "doc_payments"
)

// BillingRepo implements billing.Repository. Order totals are computed from
// detail lines at read time; the reconciler never persists a total.
type BillingRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBillingRepo creates a new billing repository.
func NewBillingRepo(txManager *postgres.TxManager) *BillingRepo {
	return &BillingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// SumPayments totals every payment the customer has made.
func (r *BillingRepo) SumPayments(ctx context.Context, customerID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(amount), 0)
		FROM doc_payments
		WHERE customer_id = $1
	`

	var total types.Money
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, customerID).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum payments: %w", err)
	}

	return total, nil
}

// ListOrdersOldestFirst returns the customer's orders with line totals
// precomputed, issue date ascending. Rows are locked so two concurrent
// reconciliations of the same customer serialize.
func (r *BillingRepo) ListOrdersOldestFirst(ctx context.Context, customerID id.ID) ([]billing.OpenOrder, error) {
	sql := `
		SELECT o.id, o.customer_id, o.doc_ref, o.issued_at, o.paid,
		       COALESCE(l.total, 0) AS total
		FROM doc_sales_orders o
		LEFT JOIN (
			SELECT order_id, SUM(weight * unit_price) AS total
			FROM doc_sales_order_lines
			GROUP BY order_id
		) l ON l.order_id = o.id
		WHERE o.customer_id = $1
		ORDER BY o.issued_at ASC, o.id ASC
		FOR UPDATE OF o
	`

	var orders []billing.OpenOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, customerID); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	return orders, nil
}

// SetOrderPaid flips one order's paid flag.
func (r *BillingRepo) SetOrderPaid(ctx context.Context, orderID id.ID, paid bool) error {
	q := r.builder.Update(salesOrdersTable).
		Set("paid", paid).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order paid flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sales order", orderID.String())
	}

	return nil
}

// OutstandingTotal sums the totals of the customer's unpaid orders.
func (r *BillingRepo) OutstandingTotal(ctx context.Context, customerID id.ID) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(l.total), 0)
		FROM doc_sales_orders o
		JOIN (
			SELECT order_id, SUM(weight * unit_price) AS total
			FROM doc_sales_order_lines
			GROUP BY order_id
		) l ON l.order_id = o.id
		WHERE o.customer_id = $1 AND o.paid = false
	`

	var total types.Money
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, customerID).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum outstanding: %w", err)
	}

	return total, nil
}

// Ensure interface compliance.
var _ billing.Repository = (*BillingRepo)(nil)

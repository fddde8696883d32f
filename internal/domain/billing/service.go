package billing

import (
	"context"
	"fmt"

	"texcore/internal/core/id"
	"texcore/internal/core/tx"
	"texcore/internal/core/types"
	"texcore/pkg/logger"
)

// Service applies accumulated payments to orders FIFO.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a billing service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Reconcile walks the customer's orders oldest-first against the sum of all
// payments: an order is paid when the remaining balance covers its total
// (which is then subtracted); otherwise it is unpaid and the balance zeroes
// out. No partial amounts are tracked per order. Only orders whose flag
// actually changes are persisted, which makes a re-run with no new payments
// or orders a no-op.
func (s *Service) Reconcile(ctx context.Context, customerID id.ID) (Result, error) {
	result := Result{CustomerID: customerID}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		totalPaid, err := s.repo.SumPayments(ctx, customerID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		result.TotalPaid = totalPaid

		orders, err := s.repo.ListOrdersOldestFirst(ctx, customerID)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		available := totalPaid
		for _, ord := range orders {
			shouldBePaid := available.GreaterThanOrEqual(ord.Total)
			if shouldBePaid {
				available = available.Sub(ord.Total)
			} else {
				available = types.Zero()
			}

			if shouldBePaid == ord.Paid {
				continue
			}
			if err := s.repo.SetOrderPaid(ctx, ord.ID, shouldBePaid); err != nil {
				return fmt.Errorf("update order %s: %w", ord.ID, err)
			}
			if shouldBePaid {
				result.MarkedPaid++
			} else {
				result.MarkedUnpaid++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info(ctx, "payments reconciled",
		"customer_id", customerID,
		"total_paid", result.TotalPaid,
		"marked_paid", result.MarkedPaid,
		"marked_unpaid", result.MarkedUnpaid,
	)
	return result, nil
}

// OutstandingBalance returns the sum of the customer's unpaid order totals.
// The reconciler's invariant keeps this exactly equal to what the customer
// still owes.
func (s *Service) OutstandingBalance(ctx context.Context, customerID id.ID) (types.Money, error) {
	return s.repo.OutstandingTotal(ctx, customerID)
}

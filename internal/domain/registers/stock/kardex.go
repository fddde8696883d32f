package stock

import (
	"context"
	"fmt"

	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/types"
)

// Kardex reconstructs the chronological running balance of a product in a
// warehouse by replaying the movement journal: entries where the warehouse
// is the destination add, where it is the source subtract. The replay does
// not read the stored resulting balances, so it stays correct even when
// historic purchase entries were later corrected. Runs in a read-only
// transaction, no locks.
func (s *Service) Kardex(ctx context.Context, warehouseID, productID id.ID) ([]KardexLine, error) {
	var movements []entity.MovementEntry
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		movements, err = s.repo.ListMovements(ctx, warehouseID, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}

	balance := types.Zero()
	lines := make([]KardexLine, 0, len(movements))
	for _, m := range movements {
		line := KardexLine{
			Timestamp: m.Timestamp,
			Kind:      m.Kind,
			DocRef:    m.DocRef,
		}
		qty := m.Quantity
		if m.DestWarehouseID != nil && *m.DestWarehouseID == warehouseID {
			balance = balance.Add(qty)
			line.Entrance = &qty
		} else {
			balance = balance.Sub(qty)
			line.Exit = &qty
		}
		line.Balance = balance
		lines = append(lines, line)
	}
	return lines, nil
}

// LowStock scans stock rows against each product's configured minimum and
// reports shortfalls. Runs read-only, no locking: a slightly stale snapshot
// is acceptable for an alert.
func (s *Service) LowStock(ctx context.Context) ([]LowStockAlert, error) {
	var alerts []LowStockAlert
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		alerts, err = s.repo.ListLowStock(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

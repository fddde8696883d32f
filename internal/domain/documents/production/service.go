package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/core/tx"
	"texcore/internal/core/types"
	"texcore/internal/domain/catalogs/formula"
	"texcore/internal/domain/registers/stock"
	"texcore/pkg/logger"
)

// weightDeviationTolerance is the fraction of the order's required weight
// beyond which a produced net weight is flagged (not blocked).
var weightDeviationTolerance = types.MustQuantity("0.05")

// Service orchestrates production registration and rejection reversal over
// the inventory ledger.
type Service struct {
	repo     Repository
	formulas formula.Repository
	ledger   *stock.Service
	txm      tx.Manager
}

// NewService creates a production service.
func NewService(repo Repository, formulas formula.Repository, ledger *stock.Service, txm tx.Manager) *Service {
	return &Service{repo: repo, formulas: formulas, ledger: ledger, txm: txm}
}

// Register consumes raw material, formula chemicals and packaging supplies
// for a production order, then credits the output under a new lot. One
// transaction: any failure rolls back every step, leaving no lot and no
// partial consumption.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Lot, []WeightWarning, error) {
	if strings.TrimSpace(in.LotCode) == "" {
		return Lot{}, nil, apperror.NewValidation("lot code is required")
	}
	if !in.NetWeight.IsPositive() {
		return Lot{}, nil, apperror.NewValidation("net weight must be positive")
	}

	var lot Lot
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ord, err := s.repo.GetOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}

		lotCode := in.LotCode

		// 1. Raw material: the order's own product, bulk row, by output
		// weight (1:1 transform).
		if _, err := s.ledger.DebitPosted(ctx, stock.MovementInput{
			Kind:              entity.KindConsumption,
			ProductID:         ord.ProductID,
			SourceWarehouseID: &ord.WarehouseID,
			Quantity:          in.NetWeight,
			DocRef:            &lotCode,
			Actor:             in.Actor,
		}); err != nil {
			return err
		}

		// 2. Formula chemicals, proportional to output weight.
		if ord.FormulaID != nil {
			lines, err := s.formulas.Lines(ctx, *ord.FormulaID)
			if err != nil {
				return fmt.Errorf("load formula lines: %w", err)
			}
			for _, line := range lines {
				required := line.RequiredKilos(in.NetWeight)
				if !required.IsPositive() {
					continue
				}
				if _, err := s.ledger.DebitPosted(ctx, stock.MovementInput{
					Kind:              entity.KindConsumption,
					ProductID:         line.ChemicalProductID,
					SourceWarehouseID: &ord.WarehouseID,
					Quantity:          required,
					DocRef:            &lotCode,
					Actor:             in.Actor,
				}); err != nil {
					if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeInsufficientStock {
						return appErr.WithDetail("chemical_product_id", line.ChemicalProductID.String())
					}
					return err
				}
			}
		}

		// 3. Packaging supplies: one unit of each supply present with at
		// least one unit on hand. Rows under a unit are skipped; a missing
		// label does not void production.
		supplies, err := s.repo.ListSupplyRows(ctx, ord.WarehouseID)
		if err != nil {
			return fmt.Errorf("list supply rows: %w", err)
		}
		for _, row := range supplies {
			if row.Quantity.LessThan(types.One()) {
				continue
			}
			if _, err := s.ledger.DebitPosted(ctx, stock.MovementInput{
				Kind:              entity.KindConsumption,
				ProductID:         row.ProductID,
				SourceWarehouseID: &ord.WarehouseID,
				Quantity:          types.One(),
				DocRef:            &lotCode,
				Actor:             in.Actor,
			}); err != nil {
				return err
			}
		}

		// 4. The lot itself.
		lot = Lot{
			ID:        id.New(),
			Code:      in.LotCode,
			OrderID:   ord.ID,
			Operator:  in.Actor,
			Machine:   in.Machine,
			Shift:     in.Shift,
			StartedAt: in.StartedAt,
			EndedAt:   in.EndedAt,
			NetWeight: in.NetWeight,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.CreateLot(ctx, lot); err != nil {
			return err
		}

		// 5. Output, pinned to the new lot (not the bulk row).
		if _, err := s.ledger.CreditPosted(ctx, stock.MovementInput{
			Kind:            entity.KindProductionIn,
			ProductID:       ord.ProductID,
			LotID:           &lot.ID,
			DestWarehouseID: &ord.WarehouseID,
			Quantity:        in.NetWeight,
			DocRef:          &lotCode,
			Actor:           in.Actor,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Lot{}, nil, err
	}

	warnings := s.validateWeights(ctx, in)

	logger.Info(ctx, "production lot registered",
		"lot_code", lot.Code,
		"order_id", lot.OrderID,
		"net_weight", lot.NetWeight,
		"warnings", len(warnings),
	)
	return lot, warnings, nil
}

// validateWeights runs the non-blocking consistency checks: net must equal
// gross minus tare when packaging weights are supplied, and the net weight
// should sit within tolerance of the order's required weight.
func (s *Service) validateWeights(ctx context.Context, in RegisterInput) []WeightWarning {
	var warnings []WeightWarning

	if in.GrossWeight != nil && in.TareWeight != nil {
		expected := in.GrossWeight.Sub(*in.TareWeight)
		if !types.RoundQty(expected).Equal(types.RoundQty(in.NetWeight)) {
			warnings = append(warnings, WeightWarning{
				Code: WarnNetTareMismatch,
				Message: fmt.Sprintf("net weight %s does not equal gross %s minus tare %s",
					in.NetWeight, in.GrossWeight, in.TareWeight),
			})
		}
	}

	ord, err := s.repo.GetOrder(ctx, in.OrderID)
	if err == nil && ord.RequiredWeight.IsPositive() {
		deviation := in.NetWeight.Sub(ord.RequiredWeight).Abs()
		if deviation.GreaterThan(ord.RequiredWeight.Mul(weightDeviationTolerance)) {
			warnings = append(warnings, WeightWarning{
				Code: WarnWeightDeviation,
				Message: fmt.Sprintf("net weight %s deviates more than 5%% from required %s",
					in.NetWeight, ord.RequiredWeight),
			})
		}
	}

	for _, w := range warnings {
		logger.Warn(ctx, "weight validation", "code", w.Code, "detail", w.Message)
	}
	return warnings
}

// Reject voids a registered lot: debits its output stock, credits the raw
// material and formula chemicals back to the bulk rows, and permanently
// deletes the lot. Fails with NothingToReverse when the lot's output was
// already moved or sold elsewhere. One transaction.
func (s *Service) Reject(ctx context.Context, lotID id.ID, actor string) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.GetLot(ctx, lotID)
		if err != nil {
			return err
		}
		ord, err := s.repo.GetOrder(ctx, lot.OrderID)
		if err != nil {
			return err
		}
		lotCode := lot.Code
		rejectRef := "REJECT " + lotCode

		// 1. Pull the output back off the lot row. The whole produced
		// weight must still be there.
		if _, err := s.ledger.DebitPosted(ctx, stock.MovementInput{
			Kind:              entity.KindAdjustment,
			ProductID:         ord.ProductID,
			LotID:             &lot.ID,
			SourceWarehouseID: &ord.WarehouseID,
			Quantity:          lot.NetWeight,
			DocRef:            &rejectRef,
			Actor:             actor,
		}); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeInsufficientStock {
				required, _ := appErr.Details["required"].(string)
				available, _ := appErr.Details["available"].(string)
				return apperror.NewNothingToReverse(lot.Code, required, available)
			}
			return err
		}

		// 2. Raw material goes back to the bulk row.
		if _, err := s.ledger.CreditPosted(ctx, stock.MovementInput{
			Kind:            entity.KindCustomerReturn,
			ProductID:       ord.ProductID,
			DestWarehouseID: &ord.WarehouseID,
			Quantity:        lot.NetWeight,
			DocRef:          &rejectRef,
			Actor:           actor,
		}); err != nil {
			return err
		}

		// 3. Chemicals recomputed exactly as registration consumed them.
		if ord.FormulaID != nil {
			lines, err := s.formulas.Lines(ctx, *ord.FormulaID)
			if err != nil {
				return fmt.Errorf("load formula lines: %w", err)
			}
			for _, line := range lines {
				required := line.RequiredKilos(lot.NetWeight)
				if !required.IsPositive() {
					continue
				}
				if _, err := s.ledger.CreditPosted(ctx, stock.MovementInput{
					Kind:            entity.KindCustomerReturn,
					ProductID:       line.ChemicalProductID,
					DestWarehouseID: &ord.WarehouseID,
					Quantity:        required,
					DocRef:          &rejectRef,
					Actor:           actor,
				}); err != nil {
					return err
				}
			}
		}

		// 4. The lot never should have existed.
		return s.repo.DeleteLot(ctx, lot.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "production lot rejected", "lot_id", lotID, "actor", actor)
	return nil
}

// GetLot loads a lot (used by the label rendering collaborator).
func (s *Service) GetLot(ctx context.Context, lotID id.ID) (Lot, error) {
	return s.repo.GetLot(ctx, lotID)
}

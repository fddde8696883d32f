package stock

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
	"texcore/pkg/logger"
)

// MinCorrectionReasonLen is the minimum justification length for a
// journal correction.
const MinCorrectionReasonLen = 10

// Service provides the ledger's business operations. Every write path runs
// inside one transaction; row reads that will be mutated take exclusive
// locks for its duration. Reporting paths run read-only.
type Service struct {
	repo      Repository
	snapshots SnapshotWriter
	txm       tx.ReadOnlyManager
}

// NewService creates a ledger service.
func NewService(repo Repository, snapshots SnapshotWriter, txm tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, snapshots: snapshots, txm: txm}
}

// MovementInput describes one posting: the mutation of a single stock row
// plus its journal entry. Inbound kinds require DestWarehouseID, outbound
// kinds SourceWarehouseID; adjustments may go either way.
type MovementInput struct {
	Kind              entity.MovementKind
	ProductID         id.ID
	LotID             *id.ID
	SourceWarehouseID *id.ID
	DestWarehouseID   *id.ID
	Quantity          types.Quantity
	DocRef            *string
	Actor             string
}

func (in *MovementInput) validate() error {
	if !in.Kind.Valid() {
		return apperror.NewValidation("unknown movement kind").WithDetail("kind", string(in.Kind))
	}
	if in.Kind == entity.KindTransfer {
		return apperror.NewValidation("transfers must use the transfer operation")
	}
	if !in.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive")
	}
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required")
	}
	if in.SourceWarehouseID != nil && in.DestWarehouseID != nil {
		return apperror.NewValidation("a movement affects one warehouse; transfers carry both")
	}
	if in.Kind == entity.KindAdjustment {
		if in.SourceWarehouseID == nil && in.DestWarehouseID == nil {
			return apperror.NewValidation("adjustment requires a source or destination warehouse")
		}
		return nil
	}
	if in.Kind.Inbound() && in.DestWarehouseID == nil {
		return apperror.NewValidation("destination warehouse is required").WithDetail("kind", string(in.Kind))
	}
	if !in.Kind.Inbound() && in.SourceWarehouseID == nil {
		return apperror.NewValidation("source warehouse is required").WithDetail("kind", string(in.Kind))
	}
	return nil
}

// inbound reports whether this posting credits stock. Adjustments follow
// whichever warehouse side was named.
func (in *MovementInput) inbound() bool {
	if in.Kind == entity.KindAdjustment {
		return in.DestWarehouseID != nil
	}
	return in.Kind.Inbound()
}

// RecordMovement applies one externally-posted inventory fact: credits or
// debits the affected row per the movement kind, then appends the journal
// entry carrying the resulting balance. Atomic.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput) (entity.MovementEntry, error) {
	if err := in.validate(); err != nil {
		return entity.MovementEntry{}, err
	}

	var posted entity.MovementEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if in.inbound() {
			posted, err = s.CreditPosted(ctx, in)
		} else {
			posted, err = s.DebitPosted(ctx, in)
		}
		return err
	})
	if err != nil {
		return entity.MovementEntry{}, err
	}

	logger.Info(ctx, "movement recorded",
		"kind", posted.Kind,
		"product_id", posted.ProductID,
		"quantity", posted.Quantity,
		"balance", posted.ResultingBalance,
	)
	return posted, nil
}

// CreditPosted credits the destination row and appends the journal entry.
// Runs in the ambient transaction when one exists.
func (s *Service) CreditPosted(ctx context.Context, in MovementInput) (entity.MovementEntry, error) {
	if err := in.validate(); err != nil {
		return entity.MovementEntry{}, err
	}
	warehouseID := in.DestWarehouseID
	if warehouseID == nil {
		return entity.MovementEntry{}, apperror.NewValidation("destination warehouse is required")
	}

	var posted entity.MovementEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.repo.AddRowQuantity(ctx, *warehouseID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return fmt.Errorf("credit stock row: %w", err)
		}
		posted, err = s.post(ctx, in, row.Quantity)
		return err
	})
	return posted, err
}

// DebitPosted debits the source row and appends the journal entry. Fails
// with InsufficientStock when the locked row cannot cover the quantity;
// a missing row counts as zero available.
func (s *Service) DebitPosted(ctx context.Context, in MovementInput) (entity.MovementEntry, error) {
	if err := in.validate(); err != nil {
		return entity.MovementEntry{}, err
	}
	warehouseID := in.SourceWarehouseID
	if warehouseID == nil {
		return entity.MovementEntry{}, apperror.NewValidation("source warehouse is required")
	}

	var posted entity.MovementEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.debit(ctx, *warehouseID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return err
		}
		posted, err = s.post(ctx, in, balance)
		return err
	})
	return posted, err
}

// debit locks the row and subtracts qty, enforcing non-negativity.
// Must run inside a transaction.
func (s *Service) debit(ctx context.Context, warehouseID, productID id.ID, lotID *id.ID, qty types.Quantity) (types.Quantity, error) {
	row, found, err := s.repo.GetRowForUpdate(ctx, warehouseID, productID, lotID)
	if err != nil {
		return types.Zero(), fmt.Errorf("lock stock row: %w", err)
	}
	available := types.Zero()
	if found {
		available = row.Quantity
	}
	if available.LessThan(qty) {
		return types.Zero(), apperror.NewInsufficientStock(
			productID.String(), qty.String(), available.String())
	}
	balance := available.Sub(qty)
	if err := s.repo.SetRowQuantity(ctx, row.ID, balance); err != nil {
		return types.Zero(), fmt.Errorf("debit stock row: %w", err)
	}
	return balance, nil
}

// post appends the journal entry for an applied mutation.
func (s *Service) post(ctx context.Context, in MovementInput, resultingBalance types.Quantity) (entity.MovementEntry, error) {
	e := entity.NewMovementEntry(in.Kind, in.ProductID, in.Quantity, in.Actor)
	e.LotID = in.LotID
	e.SourceWarehouseID = in.SourceWarehouseID
	e.DestWarehouseID = in.DestWarehouseID
	e.DocRef = in.DocRef
	e.ResultingBalance = resultingBalance

	if err := s.repo.InsertEntries(ctx, []entity.MovementEntry{e}); err != nil {
		return entity.MovementEntry{}, fmt.Errorf("append journal entry: %w", err)
	}
	return e, nil
}

// TransferInput describes a stock transfer between two warehouses.
type TransferInput struct {
	ProductID         id.ID
	Quantity          types.Quantity
	SourceWarehouseID id.ID
	DestWarehouseID   id.ID
	LotID             *id.ID
	DocRef            *string
	Actor             string
}

// Transfer moves quantity from the source warehouse's row to the
// destination's, creating the destination row when absent, and posts one
// transfer entry carrying both warehouses. Rows lock source first, then
// destination, so the lock order stays deterministic. Atomic: on any
// failure no partial state is visible.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (entity.MovementEntry, error) {
	if !in.Quantity.IsPositive() {
		return entity.MovementEntry{}, apperror.NewValidation("quantity must be positive")
	}
	if in.SourceWarehouseID == in.DestWarehouseID {
		return entity.MovementEntry{}, apperror.NewSameWarehouse()
	}

	var posted entity.MovementEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.debit(ctx, in.SourceWarehouseID, in.ProductID, in.LotID, in.Quantity); err != nil {
			return err
		}

		dest, err := s.repo.AddRowQuantity(ctx, in.DestWarehouseID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return fmt.Errorf("credit destination row: %w", err)
		}

		posted, err = s.post(ctx, MovementInput{
			Kind:              entity.KindTransfer,
			ProductID:         in.ProductID,
			LotID:             in.LotID,
			SourceWarehouseID: &in.SourceWarehouseID,
			DestWarehouseID:   &in.DestWarehouseID,
			Quantity:          in.Quantity,
			DocRef:            in.DocRef,
			Actor:             in.Actor,
		}, dest.Quantity)
		return err
	})
	if err != nil {
		return entity.MovementEntry{}, err
	}

	logger.Info(ctx, "stock transferred",
		"product_id", in.ProductID,
		"quantity", in.Quantity,
		"source", in.SourceWarehouseID,
		"dest", in.DestWarehouseID,
	)
	return posted, nil
}

// CorrectInput describes a post-hoc correction of a purchase entry.
type CorrectInput struct {
	EntryID  id.ID
	Quantity *types.Quantity
	DocRef   *string
	Reason   string
	Actor    string
}

// Correct amends a purchase journal entry's quantity or document reference.
// The quantity delta re-applies to the entry's destination row; driving it
// negative fails with WouldUnderflow because downstream consumption already
// used the over-stated amount. One audit row is written per changed field,
// plus a compressed pre-correction snapshot.
func (s *Service) Correct(ctx context.Context, in CorrectInput) (entity.MovementEntry, error) {
	if len(strings.TrimSpace(in.Reason)) < MinCorrectionReasonLen {
		return entity.MovementEntry{}, apperror.NewReasonTooShort(MinCorrectionReasonLen)
	}
	if in.Quantity == nil && in.DocRef == nil {
		return entity.MovementEntry{}, apperror.NewValidation("nothing to correct")
	}
	if in.Quantity != nil && !in.Quantity.IsPositive() {
		return entity.MovementEntry{}, apperror.NewValidation("corrected quantity must be positive")
	}

	var corrected entity.MovementEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetEntryForUpdate(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if !e.Kind.Editable() {
			return apperror.NewNotEditable(string(e.Kind))
		}

		if err := s.snapshots.WriteSnapshot(ctx, e); err != nil {
			return fmt.Errorf("archive entry snapshot: %w", err)
		}

		var audits []entity.AuditEntry

		if in.Quantity != nil && !in.Quantity.Equal(e.Quantity) {
			if e.DestWarehouseID == nil {
				return apperror.NewValidation("entry has no destination row to recompute")
			}
			delta := in.Quantity.Sub(e.Quantity)

			row, found, err := s.repo.GetRowForUpdate(ctx, *e.DestWarehouseID, e.ProductID, e.LotID)
			if err != nil {
				return fmt.Errorf("lock stock row: %w", err)
			}
			current := types.Zero()
			if found {
				current = row.Quantity
			}
			newBalance := current.Add(delta)
			if newBalance.IsNegative() {
				return apperror.NewWouldUnderflow(e.ProductID.String(), newBalance.String())
			}
			if !found {
				if _, err := s.repo.AddRowQuantity(ctx, *e.DestWarehouseID, e.ProductID, e.LotID, delta); err != nil {
					return fmt.Errorf("recompute stock row: %w", err)
				}
			} else if err := s.repo.SetRowQuantity(ctx, row.ID, newBalance); err != nil {
				return fmt.Errorf("recompute stock row: %w", err)
			}

			audits = append(audits, entity.NewAuditEntry(
				e.ID, entity.AuditFieldQuantity,
				e.Quantity.String(), in.Quantity.String(),
				in.Reason, in.Actor,
			))
			e.ResultingBalance = e.ResultingBalance.Add(delta)
			e.Quantity = *in.Quantity
		}

		if in.DocRef != nil && (e.DocRef == nil || *e.DocRef != *in.DocRef) {
			old := ""
			if e.DocRef != nil {
				old = *e.DocRef
			}
			audits = append(audits, entity.NewAuditEntry(
				e.ID, entity.AuditFieldDocRef,
				old, *in.DocRef,
				in.Reason, in.Actor,
			))
			e.DocRef = in.DocRef
		}

		if len(audits) == 0 {
			return apperror.NewValidation("correction changes nothing")
		}

		now := time.Now().UTC()
		e.Edited = true
		e.LastEditedAt = &now

		if err := s.repo.UpdateEntry(ctx, e); err != nil {
			return fmt.Errorf("update journal entry: %w", err)
		}
		if err := s.repo.InsertAuditEntries(ctx, audits); err != nil {
			return fmt.Errorf("write audit trail: %w", err)
		}

		corrected = e
		return nil
	})
	if err != nil {
		return entity.MovementEntry{}, err
	}

	logger.Info(ctx, "journal entry corrected",
		"entry_id", corrected.ID,
		"actor", in.Actor,
	)
	return corrected, nil
}

// AuditTrail lists the correction history of a journal entry, newest first.
func (s *Service) AuditTrail(ctx context.Context, entryID id.ID) ([]entity.AuditEntry, error) {
	return s.repo.ListAuditEntries(ctx, entryID)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/core/apperror"
	"texcore/internal/core/entity"
	"texcore/internal/core/id"
	"texcore/internal/domain/registers/stock"
	"texcore/internal/infrastructure/http/v1/dto"
	"texcore/internal/infrastructure/storage/postgres"
)

// MovementHandler serves the movement journal: posting, correction, and the
// audit and snapshot trails.
type MovementHandler struct {
	*BaseHandler
	ledger    *stock.Service
	snapshots *postgres.SnapshotStore
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, ledger *stock.Service, snapshots *postgres.SnapshotStore) *MovementHandler {
	return &MovementHandler{BaseHandler: base, ledger: ledger, snapshots: snapshots}
}

// Record handles POST /movements.
func (h *MovementHandler) Record(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := stock.MovementInput{
		Kind:     entity.MovementKind(req.Kind),
		Quantity: req.Quantity,
		DocRef:   req.DocRef,
		Actor:    h.Actor(c),
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("productId", req.ProductID))
		return
	}
	in.ProductID = productID

	if in.LotID, err = parseOptionalID(req.LotID); err != nil {
		h.Error(c, apperror.NewValidation("invalid lot id"))
		return
	}
	if in.SourceWarehouseID, err = parseOptionalID(req.SourceWarehouseID); err != nil {
		h.Error(c, apperror.NewValidation("invalid source warehouse id"))
		return
	}
	if in.DestWarehouseID, err = parseOptionalID(req.DestWarehouseID); err != nil {
		h.Error(c, apperror.NewValidation("invalid destination warehouse id"))
		return
	}

	posted, err := h.ledger.RecordMovement(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(posted))
}

// Transfer handles POST /transfers.
func (h *MovementHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("productId", req.ProductID))
		return
	}
	sourceID, err := id.Parse(req.SourceWarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid source warehouse id"))
		return
	}
	destID, err := id.Parse(req.DestWarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid destination warehouse id"))
		return
	}
	lotID, err := parseOptionalID(req.LotID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lot id"))
		return
	}

	posted, err := h.ledger.Transfer(c.Request.Context(), stock.TransferInput{
		ProductID:         productID,
		Quantity:          req.Quantity,
		SourceWarehouseID: sourceID,
		DestWarehouseID:   destID,
		LotID:             lotID,
		DocRef:            req.DocRef,
		Actor:             h.Actor(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(posted))
}

// Correct handles PATCH /movements/:id.
func (h *MovementHandler) Correct(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CorrectMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	corrected, err := h.ledger.Correct(c.Request.Context(), stock.CorrectInput{
		EntryID:  entryID,
		Quantity: req.Quantity,
		DocRef:   req.DocRef,
		Reason:   req.Reason,
		Actor:    h.Actor(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(corrected))
}

// AuditTrail handles GET /movements/:id/audit.
func (h *MovementHandler) AuditTrail(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	trail, err := h.ledger.AuditTrail(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(trail))
	for _, a := range trail {
		items = append(items, dto.FromAuditEntry(a))
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items)})
}

// Snapshots handles GET /movements/:id/snapshots: the archived full-entry
// images taken before each correction, newest first.
func (h *MovementHandler) Snapshots(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 20)

	snaps, err := h.snapshots.History(c.Request.Context(), entryID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		items = append(items, dto.SnapshotResponse{
			ID:         s.ID.String(),
			MovementID: s.MovementID.String(),
			Entry:      s.Payload,
			CreatedAt:  s.CreatedAt,
		})
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items)})
}

// parseOptionalID parses a nillable string into an optional ID.
func parseOptionalID(raw *string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

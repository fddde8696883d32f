package handlers

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/core/apperror"
	"texcore/internal/core/id"
	"texcore/internal/domain/documents/production"
	"texcore/internal/infrastructure/http/v1/dto"
)

// ProductionHandler serves lot registration and rejection reversal.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a new production handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service}
}

// Register handles POST /production/lots.
func (h *ProductionHandler) Register(c *gin.Context) {
	var req dto.RegisterLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	orderID, err := id.Parse(req.OrderID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id").WithDetail("orderId", req.OrderID))
		return
	}

	lot, warnings, err := h.service.Register(c.Request.Context(), production.RegisterInput{
		OrderID:     orderID,
		LotCode:     req.LotCode,
		NetWeight:   req.NetWeight,
		GrossWeight: req.GrossWeight,
		TareWeight:  req.TareWeight,
		Machine:     req.Machine,
		Shift:       req.Shift,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		Actor:       h.Actor(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.NewRegisterLotResponse(lot, warnings))
}

// Get handles GET /production/lots/:id.
func (h *ProductionHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLot(lot))
}

// Reject handles DELETE /production/lots/:id. The lot and its stock effects
// are fully reversed; the lot record itself is destroyed.
func (h *ProductionHandler) Reject(c *gin.Context) {
	lotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Reject(c.Request.Context(), lotID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

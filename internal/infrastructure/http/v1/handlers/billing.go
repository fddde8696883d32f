package handlers

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/domain/billing"
	"texcore/internal/infrastructure/http/v1/dto"
)

// BillingHandler serves payment reconciliation.
type BillingHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, service *billing.Service) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service}
}

// Reconcile handles POST /customers/:id/reconcile.
func (h *BillingHandler) Reconcile(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReconcileResult(result))
}

// Balance handles GET /customers/:id/balance.
func (h *BillingHandler) Balance(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	outstanding, err := h.service.OutstandingBalance(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceResponse{
		CustomerID:  customerID.String(),
		Outstanding: outstanding,
	})
}

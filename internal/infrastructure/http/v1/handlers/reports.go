package handlers

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/domain/registers/stock"
	"texcore/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the kardex and the low-stock scanner.
type ReportsHandler struct {
	*BaseHandler
	ledger *stock.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, ledger *stock.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, ledger: ledger}
}

// Kardex handles GET /warehouses/:id/kardex?productId=...
func (h *ReportsHandler) Kardex(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}

	lines, err := h.ledger.Kardex(c.Request.Context(), warehouseID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.KardexLineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, dto.FromKardexLine(l))
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items)})
}

// LowStock handles GET /stock/alerts.
func (h *ReportsHandler) LowStock(c *gin.Context) {
	alerts, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LowStockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, dto.FromLowStockAlert(a))
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items)})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"texcore/internal/domain/catalogs/product"
	"texcore/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product catalog handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := product.NewProduct(req.Code, req.Description, product.Kind(req.Kind), req.Unit)
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// Update handles PUT /catalog/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
	}

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// Get handles GET /catalog/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// List handles GET /catalog/products.
func (h *ProductHandler) List(c *gin.Context) {
	var query dto.ListProductsQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := product.ListFilter{
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Kind != "" {
		kind := product.Kind(query.Kind)
		filter.Kind = &kind
	}

	products, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, dto.FromProduct(p))
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items)})
}

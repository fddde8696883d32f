// Package handlers provides HTTP request handlers for API v1.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"texcore/internal/core/apperror"
	appctx "texcore/internal/core/context"
	"texcore/internal/core/id"
	"texcore/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParseID parses a path parameter as an ID, reporting a validation error.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid identifier").WithDetail(param, c.Param(param)))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIDQuery parses a required query parameter as an ID.
func (h *BaseHandler) ParseIDQuery(c *gin.Context, key string) (id.ID, bool) {
	raw := c.Query(key)
	if raw == "" {
		h.Error(c, apperror.NewValidation(key+" query parameter is required"))
		return id.Nil(), false
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid identifier").WithDetail(key, raw))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// Actor extracts the acting identity from the request context.
func (h *BaseHandler) Actor(c *gin.Context) string {
	return appctx.ActorName(c.Request.Context())
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}

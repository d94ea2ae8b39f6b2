// Package handlers provides the HTTP handlers of the charterbooks API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charterbooks/internal/core/apperror"
	appctx "charterbooks/internal/core/context"
	"charterbooks/internal/core/id"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds the request body. Malformed JSON is a validation error.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParamID parses a uuid path parameter.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail(name, c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// RequireCompany aborts with 403 unless the user may work with companyID.
func (h *BaseHandler) RequireCompany(c *gin.Context, companyID id.ID) bool {
	if id.IsNil(companyID) || appctx.HasCompanyAccess(c.Request.Context(), companyID.String()) {
		return true
	}
	h.Error(c, apperror.NewForbidden("no access to company").WithDetail("companyId", companyID.String()))
	return false
}

// Error registers err on the gin context and aborts. The response body is
// written by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

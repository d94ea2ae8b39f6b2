package v1

import (
	"github.com/gin-gonic/gin"

	"charterbooks/internal/domain/auth"
	"charterbooks/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler defines the document endpoints.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Approve(c *gin.Context)
	Void(c *gin.Context)
}

// RegisterDocumentRoutes registers the CRUD and lifecycle routes under group,
// which carries the :kind path parameter. Reads need any authenticated user,
// writes need an accountant or approver, approval needs an approver.
// Admins pass every role check.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	write := middleware.RequireRole(auth.RoleAccountant, auth.RoleApprover)
	approve := middleware.RequireRole(auth.RoleApprover)

	group.GET("", handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.POST("/:id/approve", approve, handler.Approve)
	group.POST("/:id/void", write, handler.Void)
}

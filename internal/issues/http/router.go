package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bim-viewer/bim-viewer-backend/internal/issues/service"
)

// Register mounts the issue collection routes.
func Register(rg *gin.RouterGroup, svc *service.IssueService) {
	h := &Handler{svc: svc}

	rg.GET("/stats", h.stats)
	rg.POST("", h.create)
	rg.GET("", h.listAll)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

// RegisterProjectRoutes mounts the project-scoped issue listing on the
// projects group.
func RegisterProjectRoutes(projects *gin.RouterGroup, svc *service.IssueService) {
	h := &Handler{svc: svc}

	projects.GET("/:project_id/issues", h.listForProject)
}

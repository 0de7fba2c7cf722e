package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/service"
)

func Register(rg *gin.RouterGroup, svc *service.ProjectService) {
	h := &Handler{svc: svc}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:project_id", h.get)
}

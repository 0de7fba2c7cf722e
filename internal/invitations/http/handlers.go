package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bim-viewer/bim-viewer-backend/internal/access"
	"github.com/bim-viewer/bim-viewer-backend/internal/auth"
	"github.com/bim-viewer/bim-viewer-backend/internal/invitations/service"
)

type Handler struct {
	svc *service.InvitationService
}

type inviteReq struct {
	Email string `json:"email"`
}

// Register mounts the invitation route on the projects group.
func Register(projects *gin.RouterGroup, svc *service.InvitationService) {
	h := &Handler{svc: svc}

	projects.POST("/:project_id/invite", h.invite)
}

func (h *Handler) invite(c *gin.Context) {
	var req inviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email is required"})
		return
	}

	err := h.svc.Invite(c.Request.Context(), auth.Subject(c), c.Param("project_id"), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "user invited successfully"})
	case errors.Is(err, service.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email is required"})
	case errors.Is(err, service.ErrNotProjectOwner):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "only the project owner can invite users"})
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user with that email not found"})
	case errors.Is(err, access.ErrAlreadyGranted):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "user already has access to this project"})
	default:
		log.Printf("invite failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not invite user"})
	}
}

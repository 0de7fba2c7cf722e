package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bim-viewer/bim-viewer-backend/internal/auth"
	"github.com/bim-viewer/bim-viewer-backend/internal/issues/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/issues/service"
	projdomain "github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

type Handler struct {
	svc *service.IssueService
}

type createReq struct {
	ProjectID   string `json:"projectId"`
	ObjectID    string `json:"objectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

type updateReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	issue, err := h.svc.Create(c.Request.Context(), auth.Subject(c), service.CreateInput{
		ProjectID:   req.ProjectID,
		ObjectID:    req.ObjectID,
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "issue": issue})
}

func (h *Handler) listForProject(c *gin.Context) {
	issues, err := h.svc.ListForProject(c.Request.Context(), auth.Subject(c), c.Param("project_id"), filtersFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "issues": issues})
}

func (h *Handler) listAll(c *gin.Context) {
	f := filtersFromQuery(c)
	f.ProjectID = c.Query("projectId")

	issues, err := h.svc.ListAll(c.Request.Context(), auth.Subject(c), f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "issues": issues})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	issue, err := h.svc.Update(c.Request.Context(), auth.Subject(c), c.Param("id"), service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "issue": issue})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.Subject(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "issue deleted successfully"})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), auth.Subject(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ve.Error()})
	case errors.Is(err, domain.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "issue not found"})
	case errors.Is(err, projdomain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found or access denied"})
	default:
		log.Printf("issue request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "database error occurred"})
	}
}

func filtersFromQuery(c *gin.Context) service.Filters {
	return service.Filters{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		ObjectID: c.Query("objectId"),
	}
}

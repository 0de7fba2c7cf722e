package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bim-viewer/bim-viewer-backend/internal/auth"
	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
	"github.com/bim-viewer/bim-viewer-backend/internal/projects/service"
)

type Handler struct {
	svc *service.ProjectService
}

// create accepts a multipart body with a 'model' file and a
// 'projectName' form field.
func (h *Handler) create(c *gin.Context) {
	file, err := c.FormFile("model")
	name := c.PostForm("projectName")
	if err != nil || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "request must include 'model' file and 'projectName' form field"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid or no file selected"})
		return
	}
	defer f.Close()

	p, err := h.svc.Create(c.Request.Context(), auth.Subject(c), name, file.Filename, f, file.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNameRequired), errors.Is(err, domain.ErrInvalidModelFile):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			log.Printf("create project failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create project"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.Subject(c))
	if err != nil {
		log.Printf("list projects failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not retrieve projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	projectID := c.Param("project_id")

	p, err := h.svc.Get(c.Request.Context(), auth.Subject(c), projectID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found or access denied"})
		case errors.Is(err, domain.ErrLinkUnavailable):
			log.Printf("get project %s: %v", projectID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not generate access URL for model"})
		default:
			log.Printf("get project %s failed: %v", projectID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "database error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

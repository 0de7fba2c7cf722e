package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apihttp "github.com/bim-viewer/bim-viewer-backend/internal/api/http"
	"github.com/bim-viewer/bim-viewer-backend/internal/api/http/middleware"
	"github.com/bim-viewer/bim-viewer-backend/internal/auth"
	invhttp "github.com/bim-viewer/bim-viewer-backend/internal/invitations/http"
	invservice "github.com/bim-viewer/bim-viewer-backend/internal/invitations/service"
	issuehttp "github.com/bim-viewer/bim-viewer-backend/internal/issues/http"
	issueservice "github.com/bim-viewer/bim-viewer-backend/internal/issues/service"
	projecthttp "github.com/bim-viewer/bim-viewer-backend/internal/projects/http"
	projectservice "github.com/bim-viewer/bim-viewer-backend/internal/projects/service"
)

type RouterDeps struct {
	Verifier    auth.TokenVerifier
	Projects    *projectservice.ProjectService
	Issues      *issueservice.IssueService
	Invitations *invservice.InvitationService
	Health      apihttp.Pinger
	Version     string
}

// BuildRouter assembles the full HTTP surface. Health probes stay
// outside the authenticated group.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.Default())

	apihttp.NewHealthHandler(dep.Health, dep.Version).Register(r)

	api := r.Group("/api/v1")
	api.Use(auth.RequireAuth(dep.Verifier))

	projectsGroup := api.Group("/projects")
	projecthttp.Register(projectsGroup, dep.Projects)
	issuehttp.RegisterProjectRoutes(projectsGroup, dep.Issues)
	invhttp.Register(projectsGroup, dep.Invitations)

	issuesGroup := api.Group("/issues")
	issuehttp.Register(issuesGroup, dep.Issues)

	return r
}

package main

import (
	"context"
	"log"

	"github.com/bim-viewer/bim-viewer-backend/config"
	"github.com/bim-viewer/bim-viewer-backend/internal/access"
	"github.com/bim-viewer/bim-viewer-backend/internal/auth"
	"github.com/bim-viewer/bim-viewer-backend/internal/bootstrap"
	invservice "github.com/bim-viewer/bim-viewer-backend/internal/invitations/service"
	issuerepo "github.com/bim-viewer/bim-viewer-backend/internal/issues/repository"
	issueservice "github.com/bim-viewer/bim-viewer-backend/internal/issues/service"
	projectrepo "github.com/bim-viewer/bim-viewer-backend/internal/projects/repository"
	projectservice "github.com/bim-viewer/bim-viewer-backend/internal/projects/service"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/dynamo"
	"github.com/bim-viewer/bim-viewer-backend/internal/storage/s3store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	awsCfg, err := bootstrap.OpenAWS(ctx, cfg.AWS.Region)
	if err != nil {
		log.Fatalf("aws: %v", err)
	}

	tables := dynamo.Tables{
		Issues:      cfg.Tables.Issues,
		Projects:    cfg.Tables.Projects,
		Permissions: cfg.Tables.Permissions,
	}
	store := dynamo.NewStore(dynamo.New(awsCfg), tables)
	models := s3store.New(awsCfg, cfg.AWS.S3Bucket)

	verifier := auth.NewCognitoVerifier(ctx, &cfg.Cognito)
	directory := auth.NewCognitoDirectory(awsCfg, cfg.Cognito.UserPoolID)

	permissions := projectrepo.NewPermissionRepo(store.API(), tables)
	engine := access.NewEngine(permissions)

	projects := projectrepo.NewRepo(store.API(), tables)
	issues := issuerepo.NewRepo(store.API(), tables)

	projectSvc := projectservice.NewProjectService(projects, engine, models)
	issueSvc := issueservice.NewIssueService(issues, engine)
	inviteSvc := invservice.NewInvitationService(engine, directory)

	if cfg.Reconciler.Enabled {
		reconciler := projectservice.NewReconciler(projects, permissions)
		cronRunner, err := reconciler.Start(cfg.Reconciler.Schedule)
		if err != nil {
			log.Fatalf("reconciler: %v", err)
		}
		defer cronRunner.Stop()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Verifier:    verifier,
		Projects:    projectSvc,
		Issues:      issueSvc,
		Invitations: inviteSvc,
		Health:      store,
		Version:     cfg.App.Version,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

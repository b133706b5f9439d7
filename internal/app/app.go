// Package app wires the portal's repositories, services, and handlers from
// the dependencies main() provides.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"dirportal/internal/auth"
	"dirportal/internal/config"
	"dirportal/internal/db"
	"dirportal/internal/db/repository"
	"dirportal/internal/graph"
	"dirportal/internal/middleware"
	"dirportal/internal/service/audit"
	"dirportal/internal/service/directory"
	"dirportal/internal/service/janitor"
	"dirportal/internal/service/settings"
	"dirportal/internal/ui"
)

// Deps holds the external dependencies that main() must provide.
// The audit store is opened (and migrated) by the caller so that CLI
// tooling can reuse the same open helpers without dragging in the whole
// app graph.
type Deps struct {
	Cfg    *config.Config
	Store  *db.Store
	Logger *slog.Logger
}

// Services groups the portal's domain services for callers that need
// direct access, such as tests.
type Services struct {
	Directory *directory.Service
	Settings  *settings.Service
	Audit     *audit.Service
}

// App holds the fully-wired portal: services, the authenticator with its
// session and token stores, the HTTP handlers, and the background janitor.
type App struct {
	Services Services
	Auth     *auth.Authenticator
	Sessions *auth.Manager
	Tokens   *auth.TokenCache
	Handler  *ui.Handler
	Janitor  *janitor.Janitor
}

// New wires the portal bottom-up: the audit store first, then the
// authenticator and directory client, then the services that depend on
// both, and finally the handlers and janitor on top.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	auditRepo := repository.NewAuditRepo(deps.Store.Write, deps.Store.Read)
	auditSvc := audit.NewService(auditRepo, deps.Logger.With("component", "audit"), middleware.RequestIDFromContext)

	sessions := auth.NewManager(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.IsProduction())
	tokens := auth.NewTokenCache()
	authn, err := auth.NewAuthenticator(ctx, cfg.Auth, sessions, tokens, deps.Logger.With("component", "auth"))
	if err != nil {
		return nil, fmt.Errorf("authenticator: %w", err)
	}

	client := graph.NewClient(cfg.GraphBaseURL, nil, deps.Logger.With("component", "graph"))

	directorySvc := directory.NewService(client, auditSvc, deps.Logger.With("component", "directory"))
	settingsSvc := settings.NewService(client, auditSvc, deps.Logger.With("component", "settings"))

	handler := ui.NewHandler(directorySvc, settingsSvc, auditSvc, authn, cfg.IsProduction(), deps.Logger.With("component", "ui"))
	jan := janitor.New(tokens, auditSvc, cfg.AuditRetention, deps.Logger.With("component", "janitor"))

	return &App{
		Services: Services{
			Directory: directorySvc,
			Settings:  settingsSvc,
			Audit:     auditSvc,
		},
		Auth:     authn,
		Sessions: sessions,
		Tokens:   tokens,
		Handler:  handler,
		Janitor:  jan,
	}, nil
}

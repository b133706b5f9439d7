// Package ui is the server-rendered portal: user directory pages, the
// roaming-settings editor, and the audit view. Handlers acquire a delegated
// token per operation and hold no directory state between requests.
package ui

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
	"dirportal/internal/service/audit"
	"dirportal/internal/service/directory"
	"dirportal/internal/service/settings"

	gomponents "maragu.dev/gomponents"
)

// DirectoryAuth is the slice of the authenticator the handlers use: scope
// assurance, token acquisition, and the interactive sign-in/consent legs.
type DirectoryAuth interface {
	SignInURL(w http.ResponseWriter, returnTo string) (string, error)
	ConsentURL(w http.ResponseWriter, sessionID, returnTo string, scopes []string) (string, error)
	Exchange(ctx context.Context, w http.ResponseWriter, r *http.Request) (auth.Session, string, error)
	Token(ctx context.Context, sessionID string) (string, error)
	EnsureScopes(sessionID string, required ...string) error
	SignOut(w http.ResponseWriter, sessionID string)
	BasicScopes() []string
	ElevatedScopes() []string
	SettingsScopes() []string
}

type Handler struct {
	Directory  *directory.Service
	Settings   *settings.Service
	Audit      *audit.Service
	Auth       DirectoryAuth
	Production bool
	Logger     *slog.Logger
}

func NewHandler(
	directorySvc *directory.Service,
	settingsSvc *settings.Service,
	auditSvc *audit.Service,
	authn DirectoryAuth,
	production bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		Directory:  directorySvc,
		Settings:   settingsSvc,
		Audit:      auditSvc,
		Auth:       authn,
		Production: production,
		Logger:     logger,
	}
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func principalFromContext(ctx context.Context) domain.ContextPrincipal {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ContextPrincipal{DisplayName: "unknown"}
	}
	return p
}

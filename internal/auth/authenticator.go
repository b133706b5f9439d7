package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"dirportal/internal/config"
	"dirportal/internal/domain"
)

// consumerTenantID is the well-known tenant consumer (personal) accounts
// sign in from. Directory organization features are unavailable to them.
const consumerTenantID = "9188040d-6c67-4c5b-b112-36a304b66dad"

// Authenticator runs the authorization-code flow against the identity
// provider and answers scope and token questions for signed-in sessions.
type Authenticator struct {
	cfg      config.AuthConfig
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	sessions *Manager
	tokens   *TokenCache
	logger   *slog.Logger
}

// NewAuthenticator discovers the identity provider and wires the code flow.
// With a stock cloud tenant the token endpoints come from the well-known
// AzureAD endpoint set; a custom issuer (tests, the fake directory) supplies
// its own through discovery.
func NewAuthenticator(ctx context.Context, cfg config.AuthConfig, sessions *Manager, tokens *TokenCache, logger *slog.Logger) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer())
	if err != nil {
		return nil, fmt.Errorf("discover identity provider: %w", err)
	}

	endpoint := provider.Endpoint()
	if cfg.IssuerURL == "" {
		endpoint = microsoft.AzureADEndpoint(cfg.TenantID)
	}

	return &Authenticator{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// BasicScopes are required for everyday profile reads and self-serve edits.
func (a *Authenticator) BasicScopes() []string { return slices.Clone(a.cfg.ScopesBasic) }

// ElevatedScopes are required for administrative listings and mutations.
func (a *Authenticator) ElevatedScopes() []string { return slices.Clone(a.cfg.ScopesElevated) }

// SettingsScopes are required for the roaming-settings document.
func (a *Authenticator) SettingsScopes() []string { return slices.Clone(a.cfg.ScopesSettings) }

func (a *Authenticator) signInScopes() []string { return slices.Clone(a.cfg.ScopesSignIn) }

// SignInURL starts the code flow with the sign-in and basic scopes and
// writes the state cookie. The caller redirects to the returned URL.
func (a *Authenticator) SignInURL(w http.ResponseWriter, returnTo string) (string, error) {
	return a.authURL(w, returnTo, unionScopes(a.signInScopes(), a.BasicScopes()))
}

// ConsentURL starts a consent round trip for additional scopes. The request
// carries the union of sign-in, already-granted, and newly-required scopes
// so a successful consent never narrows the grant.
func (a *Authenticator) ConsentURL(w http.ResponseWriter, sessionID, returnTo string, scopes []string) (string, error) {
	var granted []string
	if g, ok := a.tokens.Get(sessionID); ok {
		granted = g.Scopes
	}
	union := unionScopes(a.signInScopes(), granted, scopes)
	return a.authURL(w, returnTo, union, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (a *Authenticator) authURL(w http.ResponseWriter, returnTo string, scopes []string, opts ...oauth2.AuthCodeOption) (string, error) {
	state, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	if err := a.sessions.WriteState(w, State{
		State:    state,
		Nonce:    nonce,
		ReturnTo: returnTo,
		Scopes:   scopes,
	}); err != nil {
		return "", fmt.Errorf("write state cookie: %w", err)
	}

	cfg := a.oauth
	cfg.Scopes = scopes
	opts = append(opts, oauth2.SetAuthURLParam("nonce", nonce))
	return cfg.AuthCodeURL(state, opts...), nil
}

// Exchange completes the callback leg: it checks state and nonce, redeems
// the code, verifies the id token, caches the grant, and writes the session
// cookie. It returns the session and the path the flow started from.
func (a *Authenticator) Exchange(ctx context.Context, w http.ResponseWriter, r *http.Request) (Session, string, error) {
	state, err := a.sessions.ReadState(r)
	if err != nil {
		return Session{}, "", domain.ErrValidation("sign-in state cookie is missing or invalid")
	}
	a.sessions.ClearState(w)

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		desc := q.Get("error_description")
		if errCode == "access_denied" || errCode == "consent_required" {
			return Session{}, state.ReturnTo, domain.ErrAccessDenied("sign-in was declined at the identity provider")
		}
		return Session{}, state.ReturnTo, fmt.Errorf("identity provider returned %s: %s", errCode, desc)
	}
	if q.Get("state") != state.State {
		return Session{}, "", domain.ErrValidation("sign-in state does not match")
	}
	code := q.Get("code")
	if code == "" {
		return Session{}, "", domain.ErrValidation("callback is missing the authorization code")
	}

	cfg := a.oauth
	cfg.Scopes = state.Scopes
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return Session{}, "", fmt.Errorf("redeem authorization code: %w", err)
	}

	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return Session{}, "", fmt.Errorf("token response carries no id token")
	}
	idt, err := a.verifier.Verify(ctx, rawID)
	if err != nil {
		return Session{}, "", fmt.Errorf("verify id token: %w", err)
	}
	if state.Nonce != "" && idt.Nonce != state.Nonce {
		return Session{}, "", domain.ErrValidation("sign-in nonce does not match")
	}

	var claims struct {
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		TenantID          string `json:"tid"`
	}
	if err := idt.Claims(&claims); err != nil {
		return Session{}, "", fmt.Errorf("decode id token claims: %w", err)
	}

	// A consent round trip for an already signed-in user keeps its session
	// id so the fresh grant replaces the old one.
	sess, sessErr := a.sessions.ReadSession(r)
	if sessErr != nil || sess.Subject != idt.Subject || sess.ID == "" {
		sess = Session{ID: domain.NewID()}
	}
	sess.Subject = idt.Subject
	sess.DisplayName = claims.Name
	if sess.DisplayName == "" {
		sess.DisplayName = claims.PreferredUsername
	}
	sess.Principal = claims.PreferredUsername
	sess.TenantID = claims.TenantID
	sess.Consumer = claims.TenantID == consumerTenantID

	granted := GrantedScopes(tok)
	if len(granted) == 0 {
		granted = state.Scopes
	}
	a.tokens.Put(sess.ID, Grant{Token: tok, Scopes: granted})

	if err := a.sessions.WriteSession(w, sess); err != nil {
		return Session{}, "", fmt.Errorf("write session cookie: %w", err)
	}

	a.logger.Info("signed in", "principal", sess.Principal, "consumer", sess.Consumer, "scopes", granted)
	return sess, state.ReturnTo, nil
}

// Token returns a live access token for the session, refreshing through the
// provider when the cached one has expired. The refreshed grant is written
// back so later calls reuse it.
func (a *Authenticator) Token(ctx context.Context, sessionID string) (string, error) {
	g, ok := a.tokens.Get(sessionID)
	if !ok {
		return "", domain.ErrAccessDenied("session has no directory grant")
	}
	if g.Token.Valid() {
		return g.Token.AccessToken, nil
	}

	fresh, err := a.oauth.TokenSource(ctx, g.Token).Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	if fresh.AccessToken != g.Token.AccessToken {
		granted := GrantedScopes(fresh)
		if len(granted) == 0 {
			granted = g.Scopes
		}
		a.tokens.Put(sessionID, Grant{Token: fresh, Scopes: granted})
		a.logger.Debug("access token refreshed", "session", sessionID)
	}
	return fresh.AccessToken, nil
}

// EnsureScopes verifies the session's grant covers every required scope. The
// check is purely local; a shortfall comes back as a ConsentError naming
// exactly the missing scopes so the caller can start a consent round trip.
func (a *Authenticator) EnsureScopes(sessionID string, required ...string) error {
	g, ok := a.tokens.Get(sessionID)
	if !ok {
		return domain.ErrConsent(required...)
	}
	if missing := missingScopes(g.Scopes, required); len(missing) > 0 {
		return domain.ErrConsent(missing...)
	}
	return nil
}

// SignOut drops the session's grant and expires its cookie.
func (a *Authenticator) SignOut(w http.ResponseWriter, sessionID string) {
	a.tokens.Delete(sessionID)
	a.sessions.ClearSession(w)
}

// IsConsentError reports whether err means the user must go back through the
// identity provider: a scope shortfall, a directory permission denial, or a
// token refresh the provider rejected as needing interaction.
func IsConsentError(err error) bool {
	var consent *domain.ConsentError
	if errors.As(err, &consent) {
		return true
	}
	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		return true
	}
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		switch retrieve.ErrorCode {
		case "invalid_grant", "interaction_required", "consent_required":
			return true
		}
	}
	return false
}

// MissingScopes extracts the scopes a ConsentError in err's chain names.
func MissingScopes(err error) []string {
	var consent *domain.ConsentError
	if errors.As(err, &consent) {
		return consent.Missing
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	cards := []overviewCardData{
		{Title: "My Profile", Description: "Your directory record, photo, manager, and direct reports.", Href: "/Users/Display?userId=me", LinkLabel: "Open profile ->"},
		{Title: "Directory", Description: "Browse organization users with basic read access.", Href: "/Users/List", LinkLabel: "Open directory ->"},
		{Title: "Admin Directory", Description: "Organization-wide listing with elevated access.", Href: "/Users/AdminList", LinkLabel: "Open admin directory ->"},
		{Title: "New User", Description: "Create a directory user on a verified domain.", Href: "/Users/Create", LinkLabel: "Create user ->"},
		{Title: "Settings", Description: "Your roaming settings stored on your directory record.", Href: "/Extensions", LinkLabel: "Open settings ->"},
		{Title: "Audit", Description: "Recent directory operations made through this portal.", Href: "/Audit", LinkLabel: "Open audit ->"},
	}
	renderHTML(w, http.StatusOK, overviewPage(p, csrfFieldProvider(r), cards))
}

// token runs scope assurance for the session and returns a live delegated
// access token. On failure the response has already been written (a consent
// redirect or the error page) and the caller must stop.
func (h *Handler) token(w http.ResponseWriter, r *http.Request, scopes []string, returnTo string) (string, bool) {
	p := principalFromContext(r.Context())
	if err := h.Auth.EnsureScopes(p.SessionID, scopes...); err != nil {
		h.failAuth(w, r, err, returnTo, scopes)
		return "", false
	}
	tok, err := h.Auth.Token(r.Context(), p.SessionID)
	if err != nil {
		h.failAuth(w, r, err, returnTo, scopes)
		return "", false
	}
	return tok, true
}

// failAuth is the terminal failure hook for page loads: consent-shaped
// failures bounce through the identity provider carrying the missing scopes,
// everything else renders the error page.
func (h *Handler) failAuth(w http.ResponseWriter, r *http.Request, err error, returnTo string, scopes []string) {
	if h.redirectToConsent(w, r, err, returnTo, scopes) {
		return
	}
	h.renderServiceError(w, r, err)
}

// failRedirect is the failure hook for mutations: consent-shaped failures
// bounce through the identity provider, everything else goes back to target
// with the failure as a flash message.
func (h *Handler) failRedirect(w http.ResponseWriter, r *http.Request, err error, target, returnTo string, scopes []string) {
	if h.redirectToConsent(w, r, err, returnTo, scopes) {
		return
	}
	http.Redirect(w, r, withQuery(target, "error", userMessage(err)), http.StatusSeeOther)
}

// redirectToConsent starts a consent round trip when the failure looks like
// missing consent. Reports whether it wrote the response.
func (h *Handler) redirectToConsent(w http.ResponseWriter, r *http.Request, err error, returnTo string, scopes []string) bool {
	if !auth.IsConsentError(err) {
		return false
	}
	p := principalFromContext(r.Context())
	missing := auth.MissingScopes(err)
	if len(missing) == 0 {
		missing = scopes
	}
	consentURL, cerr := h.Auth.ConsentURL(w, p.SessionID, returnTo, missing)
	if cerr != nil {
		h.Logger.Error("build consent url", "error", cerr)
		return false
	}
	http.Redirect(w, r, consentURL, http.StatusSeeOther)
	return true
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &accessDenied) {
		status = http.StatusForbidden
		title = "Access Denied"
		message = accessDenied.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	} else if errors.As(err, &conflict) {
		status = http.StatusConflict
		title = "Conflict"
		message = conflict.Error()
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("page failed", "path", r.URL.Path, "error", err)
	}
	renderHTML(w, status, errorPage(title, message))
}

// userMessage extracts the human-readable part of a failure for flash
// display, unwrapping to the domain error when one is present.
func userMessage(err error) string {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &accessDenied):
		return accessDenied.Error()
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &conflict):
		return conflict.Error()
	}
	return err.Error()
}

// withQuery appends key=value to target, which may already carry a query.
func withQuery(target, key, value string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + key + "=" + url.QueryEscape(value)
}

// flashFromRequest pulls the notice/error flash pair off the query string.
func flashFromRequest(r *http.Request) (notice, errMsg string) {
	q := r.URL.Query()
	return strings.TrimSpace(q.Get("notice")), strings.TrimSpace(q.Get("error"))
}

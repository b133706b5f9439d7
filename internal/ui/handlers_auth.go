package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"dirportal/internal/domain"
)

// SignIn renders the sign-in landing page. The return parameter set by the
// session gate is threaded through to the start link so the user lands back
// where they were headed.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderHTML(w, http.StatusOK, signinPage(
		strings.TrimSpace(q.Get("error")),
		safeReturnPath(q.Get("return")),
	))
}

// SignInStart begins the authorization code flow and redirects to the
// identity provider.
func (h *Handler) SignInStart(w http.ResponseWriter, r *http.Request) {
	returnTo := safeReturnPath(r.URL.Query().Get("return"))
	signInURL, err := h.Auth.SignInURL(w, returnTo)
	if err != nil {
		h.Logger.Error("start sign-in", "error", err)
		renderHTML(w, http.StatusInternalServerError, errorPage("Sign-in Failed", "Could not start the sign-in flow. Try again."))
		return
	}
	http.Redirect(w, r, signInURL, http.StatusSeeOther)
}

// AuthCallback completes the code flow. A declined consent goes back to the
// sign-in page with a message instead of an error page.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	sess, returnTo, err := h.Auth.Exchange(r.Context(), w, r)
	if err != nil {
		var denied *domain.AccessDeniedError
		if errors.As(err, &denied) {
			http.Redirect(w, r, withQuery("/signin", "error", denied.Error()), http.StatusSeeOther)
			return
		}
		h.Logger.Warn("sign-in callback failed", "error", err)
		http.Redirect(w, r, withQuery("/signin", "error", userMessage(err)), http.StatusSeeOther)
		return
	}

	h.Logger.Debug("session established", "principal", sess.Principal)
	http.Redirect(w, r, safeReturnPath(returnTo), http.StatusSeeOther)
}

// SignOut discards the grant and the session cookie.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	h.Auth.SignOut(w, p.SessionID)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

// safeReturnPath keeps post-sign-in redirects on this site: only rooted
// paths survive, anything absolute or scheme-relative falls back to "/".
func safeReturnPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	if u, err := url.Parse(raw); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return raw
}

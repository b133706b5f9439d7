package ui

import (
	"context"
	"net/http"

	"dirportal/internal/domain"
)

const extensionsPath = "/Extensions"

// ExtensionsView shows the signed-in user's roaming settings, or the empty
// state when the document has never been created.
func (h *Handler) ExtensionsView(w http.ResponseWriter, r *http.Request) {
	scopes := h.Auth.SettingsScopes()
	tok, ok := h.token(w, r, scopes, r.URL.RequestURI())
	if !ok {
		return
	}

	doc, found, err := h.Settings.Get(r.Context(), tok)
	if err != nil {
		h.failAuth(w, r, err, r.URL.RequestURI(), scopes)
		return
	}

	notice, errMsg := flashFromRequest(r)
	renderHTML(w, http.StatusOK, settingsPage(principalFromContext(r.Context()), csrfFieldProvider(r), settingsPageData{
		Doc:    doc,
		Found:  found,
		Notice: notice,
		Error:  errMsg,
	}))
}

func (h *Handler) ExtensionsCreate(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.settingsForm(w, r)
	if !ok {
		return
	}
	h.extensionsMutate(w, r, "Settings created", func(ctx context.Context, tok string) error {
		return h.Settings.Create(ctx, tok, doc)
	})
}

func (h *Handler) ExtensionsUpdate(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.settingsForm(w, r)
	if !ok {
		return
	}
	h.extensionsMutate(w, r, "Settings updated", func(ctx context.Context, tok string) error {
		return h.Settings.Replace(ctx, tok, doc)
	})
}

func (h *Handler) ExtensionsDelete(w http.ResponseWriter, r *http.Request) {
	h.extensionsMutate(w, r, "Settings removed", func(ctx context.Context, tok string) error {
		return h.Settings.Delete(ctx, tok)
	})
}

func (h *Handler) settingsForm(w http.ResponseWriter, r *http.Request) (domain.RoamingSettings, bool) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Unable to parse form."))
		return domain.RoamingSettings{}, false
	}
	return domain.RoamingSettings{
		Theme:    formString(r.Form, "SelectedTheme"),
		Color:    formString(r.Form, "SelectedColor"),
		Language: formString(r.Form, "SelectedLanguage"),
	}, true
}

func (h *Handler) extensionsMutate(w http.ResponseWriter, r *http.Request, successNotice string, op func(context.Context, string) error) {
	scopes := h.Auth.SettingsScopes()
	p := principalFromContext(r.Context())
	if err := h.Auth.EnsureScopes(p.SessionID, scopes...); err != nil {
		h.failRedirect(w, r, err, extensionsPath, extensionsPath, scopes)
		return
	}
	tok, err := h.Auth.Token(r.Context(), p.SessionID)
	if err != nil {
		h.failRedirect(w, r, err, extensionsPath, extensionsPath, scopes)
		return
	}

	if err := op(r.Context(), tok); err != nil {
		h.failRedirect(w, r, err, extensionsPath, extensionsPath, scopes)
		return
	}
	http.Redirect(w, r, withQuery(extensionsPath, "notice", successNotice), http.StatusSeeOther)
}

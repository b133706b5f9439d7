package ui

import (
	"net/http"
	"net/url"
	"strings"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
	"dirportal/internal/service/directory"
)

const adminListPath = "/Users/AdminList"

func (h *Handler) UsersDisplay(w http.ResponseWriter, r *http.Request) {
	h.renderUserDetail(w, r, false)
}

func (h *Handler) UsersAdminDisplay(w http.ResponseWriter, r *http.Request) {
	h.renderUserDetail(w, r, true)
}

func (h *Handler) renderUserDetail(w http.ResponseWriter, r *http.Request, elevated bool) {
	ref := formString(r.URL.Query(), "userId")
	if ref == "" {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "A user reference is required."))
		return
	}

	scopes := h.Auth.BasicScopes()
	if elevated {
		scopes = h.Auth.ElevatedScopes()
	}
	tok, ok := h.token(w, r, scopes, r.URL.RequestURI())
	if !ok {
		return
	}

	p := principalFromContext(r.Context())
	d, err := h.Directory.Detail(r.Context(), tok, ref, directory.DetailOptions{
		Elevated: elevated,
		SkipOrg:  p.Consumer,
	})
	if err != nil {
		h.failAuth(w, r, err, r.URL.RequestURI(), scopes)
		return
	}

	notice, errMsg := flashFromRequest(r)
	renderHTML(w, http.StatusOK, userDetailPage(p, csrfFieldProvider(r), userDetailData{
		Ref:         ref,
		Detail:      d,
		Elevated:    elevated,
		ShowConsent: !elevated && (d.NeedsConsent || r.URL.Query().Get("consent") == "1"),
		Notice:      notice,
		Error:       errMsg,
	}))
}

func (h *Handler) UsersList(w http.ResponseWriter, r *http.Request) {
	h.renderUserListing(w, r, false, "")
}

func (h *Handler) UsersAdminList(w http.ResponseWriter, r *http.Request) {
	h.renderUserListing(w, r, true, "")
}

// UsersPage continues either listing from an opaque link handed out by a
// previous page. The link is round-tripped verbatim; the client refuses
// links pointing anywhere but the directory.
func (h *Handler) UsersPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	link := strings.TrimSpace(q.Get("pageUrl"))
	if link == "" {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "A continuation link is required."))
		return
	}
	elevated := q.Get("isAdmin") == "1" || strings.EqualFold(q.Get("isAdmin"), "true")
	h.renderUserListing(w, r, elevated, link)
}

func (h *Handler) renderUserListing(w http.ResponseWriter, r *http.Request, elevated bool, link string) {
	scopes := h.Auth.BasicScopes()
	if elevated {
		scopes = h.Auth.ElevatedScopes()
	}
	tok, ok := h.token(w, r, scopes, r.URL.RequestURI())
	if !ok {
		return
	}

	var page domain.UserPage
	var err error
	if link == "" {
		page, err = h.Directory.List(r.Context(), tok)
	} else {
		page, err = h.Directory.Page(r.Context(), tok, link)
	}
	if err != nil {
		h.failAuth(w, r, err, r.URL.RequestURI(), scopes)
		return
	}

	notice, errMsg := flashFromRequest(r)
	renderHTML(w, http.StatusOK, usersListPage(principalFromContext(r.Context()), csrfFieldProvider(r), usersListData{
		Users:    page.Users,
		NextLink: page.NextLink,
		Elevated: elevated,
		Notice:   notice,
		Error:    errMsg,
	}))
}

func (h *Handler) UsersCreateForm(w http.ResponseWriter, r *http.Request) {
	scopes := h.Auth.ElevatedScopes()
	tok, ok := h.token(w, r, scopes, r.URL.RequestURI())
	if !ok {
		return
	}

	domains, err := h.Directory.VerifiedDomains(r.Context(), tok)
	if err != nil {
		h.failAuth(w, r, err, r.URL.RequestURI(), scopes)
		return
	}

	_, errMsg := flashFromRequest(r)
	renderHTML(w, http.StatusOK, userCreatePage(principalFromContext(r.Context()), csrfFieldProvider(r), domains, errMsg))
}

func (h *Handler) UsersCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Unable to parse form."))
		return
	}
	req := directory.CreateRequest{
		DisplayName: formString(r.Form, "displayName"),
		UserName:    formString(r.Form, "userName"),
		DomainName:  formString(r.Form, "domainName"),
		Password:    first(r.Form["password"]),
		MobilePhone: formString(r.Form, "mobilePhone"),
	}
	// The form is rejected locally before anything reaches the directory.
	if err := req.Validate(); err != nil {
		http.Redirect(w, r, withQuery("/Users/Create", "error", userMessage(err)), http.StatusSeeOther)
		return
	}

	scopes := h.Auth.ElevatedScopes()
	p := principalFromContext(r.Context())
	if err := h.Auth.EnsureScopes(p.SessionID, scopes...); err != nil {
		h.failRedirect(w, r, err, adminListPath, "/Users/Create", scopes)
		return
	}
	tok, err := h.Auth.Token(r.Context(), p.SessionID)
	if err != nil {
		h.failRedirect(w, r, err, adminListPath, "/Users/Create", scopes)
		return
	}

	created, err := h.Directory.Create(r.Context(), tok, req)
	if err != nil {
		h.failRedirect(w, r, err, adminListPath, "/Users/Create", scopes)
		return
	}
	http.Redirect(w, r,
		withQuery(adminListPath, "notice", "Created user "+created.UserPrincipalName),
		http.StatusSeeOther)
}

// UsersUpdate changes a user's mobile phone. A permission denial sends the
// user back to the detail view with the consent banner instead of an error:
// the elevated entry point is one click away from there.
func (h *Handler) UsersUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Unable to parse form."))
		return
	}
	userID := formString(r.Form, "userId")
	if userID == "" {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "A user id is required."))
		return
	}
	detailURL := "/Users/Display?userId=" + url.QueryEscape(userID)

	p := principalFromContext(r.Context())
	scopes := h.Auth.BasicScopes()
	if err := h.Auth.EnsureScopes(p.SessionID, scopes...); err != nil {
		http.Redirect(w, r, detailURL+"&consent=1", http.StatusSeeOther)
		return
	}
	tok, err := h.Auth.Token(r.Context(), p.SessionID)
	if err != nil {
		if auth.IsConsentError(err) {
			http.Redirect(w, r, detailURL+"&consent=1", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, withQuery(detailURL, "error", userMessage(err)), http.StatusSeeOther)
		return
	}

	err = h.Directory.UpdatePhone(r.Context(), tok, userID, formString(r.Form, "mobilePhone"))
	if err != nil {
		if auth.IsConsentError(err) {
			http.Redirect(w, r, detailURL+"&consent=1", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, withQuery(detailURL, "error", userMessage(err)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, withQuery(detailURL, "notice", "Phone number updated"), http.StatusSeeOther)
}

func (h *Handler) UsersDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Unable to parse form."))
		return
	}
	userID := formString(r.Form, "userId")
	if userID == "" {
		http.Redirect(w, r, withQuery(adminListPath, "error", "a user id is required"), http.StatusSeeOther)
		return
	}

	scopes := h.Auth.ElevatedScopes()
	p := principalFromContext(r.Context())
	if err := h.Auth.EnsureScopes(p.SessionID, scopes...); err != nil {
		h.failRedirect(w, r, err, adminListPath, adminListPath, scopes)
		return
	}
	tok, err := h.Auth.Token(r.Context(), p.SessionID)
	if err != nil {
		h.failRedirect(w, r, err, adminListPath, adminListPath, scopes)
		return
	}

	if err := h.Directory.Delete(r.Context(), tok, userID); err != nil {
		h.failRedirect(w, r, err, adminListPath, adminListPath, scopes)
		return
	}
	http.Redirect(w, r, withQuery(adminListPath, "notice", "User deleted"), http.StatusSeeOther)
}

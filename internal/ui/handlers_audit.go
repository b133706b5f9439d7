package ui

import (
	"net/http"

	"dirportal/internal/domain"
)

// AuditList shows the portal's own record of directory operations. This is
// local data; no directory call is made.
func (h *Handler) AuditList(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r, 25)
	filter := domain.AuditFilter{Page: page}
	action := formString(r.URL.Query(), "action")
	if action != "" {
		filter.Action = &action
	}

	entries, total, err := h.Audit.List(r.Context(), filter)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	renderHTML(w, http.StatusOK, auditPage(principalFromContext(r.Context()), csrfFieldProvider(r), auditPageData{
		Entries: entries,
		Action:  action,
		Page:    page,
		Total:   total,
	}))
}

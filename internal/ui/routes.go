package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dirportal/internal/ui/assets"
)

// MountRoutes attaches the portal routes. Sign-in, the OAuth callback, and
// static assets stay public; everything else sits behind the session gate
// and the CSRF check.
func MountRoutes(r chi.Router, h *Handler, requireSession func(http.Handler) http.Handler) {
	r.Get("/signin", h.SignIn)
	r.Get("/signin/start", h.SignInStart)
	r.Get("/auth/callback", h.AuthCallback)

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)

		r.Get("/", h.Home)
		r.Post("/signout", h.SignOut)

		r.Route("/Users", func(r chi.Router) {
			r.Get("/Display", h.UsersDisplay)
			r.Get("/AdminDisplay", h.UsersAdminDisplay)
			r.Get("/List", h.UsersList)
			r.Get("/AdminList", h.UsersAdminList)
			r.Get("/Page", h.UsersPage)
			r.Get("/Create", h.UsersCreateForm)
			r.Post("/Create", h.UsersCreate)
			r.Post("/Update", h.UsersUpdate)
			r.Post("/Delete", h.UsersDelete)
		})

		r.Route("/Extensions", func(r chi.Router) {
			r.Get("/", h.ExtensionsView)
			r.Post("/Create", h.ExtensionsCreate)
			r.Post("/Update", h.ExtensionsUpdate)
			r.Post("/Delete", h.ExtensionsDelete)
		})

		r.Get("/Audit", h.AuditList)
	})
}

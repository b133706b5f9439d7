package middleware

import (
	"net/http"
	"net/url"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
)

// RequireSession gates a route tree behind sign-in. Page requests bounce into
// the sign-in flow with a return path; anything else gets a bare 403. The
// signed-in principal is stored on the context for handlers and the audit
// trail. Tokens are not touched here; handlers fetch them per operation.
func RequireSession(sessions *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.ReadSession(r)
			if err != nil {
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					http.Redirect(w, r, "/signin?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
					return
				}
				http.Error(w, "sign-in required", http.StatusForbidden)
				return
			}
			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				SessionID:   sess.ID,
				Subject:     sess.Subject,
				DisplayName: sess.DisplayName,
				Principal:   sess.Principal,
				Consumer:    sess.Consumer,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

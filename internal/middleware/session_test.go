package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
)

func TestRequireSession_RedirectsAnonymousPageRequest(t *testing.T) {
	sessions := auth.NewManager("h", "b", false)
	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Users/List?foo=1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/signin?return=%2FUsers%2FList%3Ffoo%3D1", rec.Header().Get("Location"))
}

func TestRequireSession_RejectsAnonymousPost(t *testing.T) {
	sessions := auth.NewManager("h", "b", false)
	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/Users/Delete", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireSession_InjectsPrincipal(t *testing.T) {
	sessions := auth.NewManager("h", "b", false)

	// Write a session cookie the way the sign-in flow would.
	wrote := httptest.NewRecorder()
	require.NoError(t, sessions.WriteSession(wrote, auth.Session{
		ID:          "sess-1",
		Subject:     "u-1",
		DisplayName: "Dana Quinn",
		Principal:   "dana@contoso.example",
	}))

	var got domain.ContextPrincipal
	var ok bool
	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = domain.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/Users/List", nil)
	for _, c := range wrote.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "dana@contoso.example", got.Principal)
	assert.False(t, got.Consumer)
}

func TestRequireSession_RejectsTamperedCookie(t *testing.T) {
	sessions := auth.NewManager("h", "b", false)
	handler := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/Users/List", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "not-a-real-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code, "a forged cookie is treated as signed out")
}

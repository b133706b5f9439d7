// Package auth signs users in against the organizational identity provider
// and keeps their delegated directory grants server-side. The browser only
// ever holds signed identity cookies; access and refresh tokens stay in the
// in-memory token cache keyed by session id.
package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionCookieName = "portal_session"
	stateCookieName   = "portal_oauth_state"

	sessionTTL = 8 * time.Hour
	stateTTL   = 10 * time.Minute
)

// Session is the signed-in identity carried by the session cookie.
type Session struct {
	ID          string `json:"id"`
	Subject     string `json:"sub"`
	DisplayName string `json:"name"`
	Principal   string `json:"upn"`
	TenantID    string `json:"tid"`
	Consumer    bool   `json:"consumer,omitempty"`
}

// State rides the short-lived state cookie across one authorization-code
// round trip.
type State struct {
	State    string   `json:"state"`
	Nonce    string   `json:"nonce"`
	ReturnTo string   `json:"return_to"`
	Scopes   []string `json:"scopes"`
}

// Manager encodes sessions and sign-in state into authenticated, encrypted
// cookies. Keys are derived from the configured secrets so operators supply
// ordinary strings.
type Manager struct {
	session *securecookie.SecureCookie
	state   *securecookie.SecureCookie
	secure  bool
}

// NewManager builds a cookie manager. secure controls the cookies' Secure
// attribute and should be true everywhere except plain-HTTP development.
func NewManager(hashKey, blockKey string, secure bool) *Manager {
	h := sha256.Sum256([]byte(hashKey))
	b := sha256.Sum256([]byte(blockKey))

	session := securecookie.New(h[:], b[:])
	session.SetSerializer(securecookie.JSONEncoder{})
	session.MaxAge(int(sessionTTL.Seconds()))

	state := securecookie.New(h[:], b[:])
	state.SetSerializer(securecookie.JSONEncoder{})
	state.MaxAge(int(stateTTL.Seconds()))

	return &Manager{session: session, state: state, secure: secure}
}

// WriteSession sets the session cookie.
func (m *Manager) WriteSession(w http.ResponseWriter, s Session) error {
	encoded, err := m.session.Encode(sessionCookieName, s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadSession decodes the session cookie. Any failure means the request is
// not signed in.
func (m *Manager) ReadSession(r *http.Request) (Session, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := m.session.Decode(sessionCookieName, c.Value, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// ClearSession expires the session cookie.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// WriteState sets the sign-in state cookie.
func (m *Manager) WriteState(w http.ResponseWriter, s State) error {
	encoded, err := m.state.Encode(stateCookieName, s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadState decodes the sign-in state cookie.
func (m *Manager) ReadState(r *http.Request) (State, error) {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := m.state.Decode(stateCookieName, c.Value, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// ClearState expires the sign-in state cookie.
func (m *Manager) ClearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

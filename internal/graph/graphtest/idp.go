package graphtest

import (
	"encoding/base64"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// The identity provider half: discovery, an auto-approving authorize
// endpoint, a token endpoint for code and refresh grants, and a JWKS.

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	base := s.BaseURL()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                base,
		"authorization_endpoint":                base + "/authorize",
		"token_endpoint":                        base + "/token",
		"jwks_uri":                              base + "/jwks",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email", "offline_access"},
	})
}

// handleAuthorize signs in the configured user without showing any prompt
// and redirects back with a fresh single-use code.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" {
		http.Error(w, "unsupported response_type", http.StatusBadRequest)
		return
	}
	clientID := q.Get("client_id")
	redirect := q.Get("redirect_uri")
	if clientID == "" || redirect == "" {
		http.Error(w, "client_id and redirect_uri are required", http.StatusBadRequest)
		return
	}
	ru, err := url.Parse(redirect)
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	code := uuid.NewString()
	s.mu.Lock()
	s.codes[code] = &authGrant{
		userID:      s.signInID,
		clientID:    clientID,
		scopes:      strings.Fields(q.Get("scope")),
		nonce:       q.Get("nonce"),
		redirectURI: redirect,
	}
	s.mu.Unlock()

	rq := ru.Query()
	rq.Set("code", code)
	if state := q.Get("state"); state != "" {
		rq.Set("state", state)
	}
	ru.RawQuery = rq.Encode()
	http.Redirect(w, r, ru.String(), http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		tokenError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}
	clientID, _, ok := r.BasicAuth()
	if !ok {
		clientID = r.PostFormValue("client_id")
	}
	if clientID == "" {
		tokenError(w, http.StatusUnauthorized, "invalid_client", "client_id is required")
		return
	}

	switch r.PostFormValue("grant_type") {
	case "authorization_code":
		code := r.PostFormValue("code")
		s.mu.Lock()
		grant := s.codes[code]
		delete(s.codes, code)
		s.mu.Unlock()
		if grant == nil {
			tokenError(w, http.StatusBadRequest, "invalid_grant", "authorization code is unknown or already redeemed")
			return
		}
		if grant.clientID != clientID {
			tokenError(w, http.StatusBadRequest, "invalid_grant", "authorization code was issued to another client")
			return
		}
		if ru := r.PostFormValue("redirect_uri"); ru != "" && ru != grant.redirectURI {
			tokenError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
			return
		}
		s.respondTokens(w, grant, "")
	case "refresh_token":
		rt := r.PostFormValue("refresh_token")
		s.mu.Lock()
		grant := s.refresh[rt]
		s.mu.Unlock()
		if grant == nil {
			tokenError(w, http.StatusBadRequest, "invalid_grant", "refresh token is unknown")
			return
		}
		s.respondTokens(w, grant, rt)
	default:
		tokenError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code and refresh_token are supported")
	}
}

// respondTokens issues the access and id tokens for a grant. A fresh refresh
// token is minted unless the caller passes the one being renewed.
func (s *Server) respondTokens(w http.ResponseWriter, grant *authGrant, refreshToken string) {
	s.mu.Lock()
	u := s.byIDLocked(grant.userID)
	var access, idToken string
	var err error
	if u != nil {
		access, err = s.signAccessTokenLocked(u, delegatedScopes(grant.scopes))
		if err == nil {
			idToken, err = s.signIDTokenLocked(u, grant.clientID, grant.nonce)
		}
	}
	if u != nil && err == nil && refreshToken == "" {
		refreshToken = uuid.NewString()
		s.refresh[refreshToken] = grant
	}
	s.mu.Unlock()

	if u == nil {
		tokenError(w, http.StatusBadRequest, "invalid_grant", "the signed-in user no longer exists")
		return
	}
	if err != nil {
		http.Error(w, "token signing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": refreshToken,
		"scope":         strings.Join(grant.scopes, " "),
		"id_token":      idToken,
	})
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	pub := &s.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": s.kid,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (s *Server) signAccessTokenLocked(u *fakeUser, scopes []string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                s.baseURL,
		"sub":                u.ID,
		"aud":                s.baseURL + "/v1.0",
		"tid":                s.userTenantLocked(u),
		"oid":                u.ID,
		"name":               u.DisplayName,
		"preferred_username": u.UserPrincipalName,
		"scp":                strings.Join(scopes, " "),
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	return tok.SignedString(s.key)
}

func (s *Server) signIDTokenLocked(u *fakeUser, clientID, nonce string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                s.baseURL,
		"sub":                u.ID,
		"aud":                clientID,
		"tid":                s.userTenantLocked(u),
		"oid":                u.ID,
		"name":               u.DisplayName,
		"preferred_username": u.UserPrincipalName,
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	return tok.SignedString(s.key)
}

func (s *Server) userTenantLocked(u *fakeUser) string {
	if u.Consumer {
		return msaTenantID
	}
	return s.tenantID
}

// delegatedScopes drops the OpenID Connect scopes; only directory scopes
// ride the access token's scp claim.
func delegatedScopes(scopes []string) []string {
	var out []string
	for _, sc := range scopes {
		switch sc {
		case "openid", "profile", "email", "offline_access":
		default:
			out = append(out, sc)
		}
	}
	return out
}

func tokenError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": description})
}

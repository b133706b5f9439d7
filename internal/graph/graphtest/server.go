// Package graphtest runs an in-process fake of the directory API together
// with a matching OpenID Connect identity provider. Tests and local
// development point the portal at it instead of the real cloud endpoints;
// the portal's own code paths stay identical either way.
package graphtest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	kindUser  = "#microsoft.graph.user"
	kindGroup = "#microsoft.graph.group"

	// extensionName is the only open extension the fake stores.
	extensionName = "com.contoso.roamingSettings"

	// msaTenantID marks consumer accounts in issued tokens.
	msaTenantID = "9188040d-6c67-4c5b-b112-36a304b66dad"

	defaultPageSize = 100
)

type fakeUser struct {
	Kind              string
	ID                string
	DisplayName       string
	UserPrincipalName string
	Mail              string
	MobilePhone       string
	AccountEnabled    bool
	ManagerID         string
	Consumer          bool
	Photo             []byte
	Settings          *SeedSettings
}

type authGrant struct {
	userID      string
	clientID    string
	scopes      []string
	nonce       string
	redirectURI string
}

// RecordedRequest is one resource call seen by the fake, with the /v1.0
// prefix stripped from the path.
type RecordedRequest struct {
	Method string
	Path   string
}

// ScopeRule demands a delegated scope for matching resource calls. An empty
// Method matches every method.
type ScopeRule struct {
	Method     string
	PathPrefix string
	Scope      string
}

type caller struct {
	id     string
	scopes []string
}

type callerKey struct{}

// Server is a fake directory plus identity provider. All state lives in
// memory and is safe for concurrent use.
type Server struct {
	mu           sync.Mutex
	baseURL      string
	tenantID     string
	users        []*fakeUser
	domains      []SeedDomain
	signInID     string
	rules        []ScopeRule
	defaultRules bool
	codes        map[string]*authGrant
	refresh      map[string]*authGrant
	requests     []RecordedRequest
	key          *rsa.PrivateKey
	kid          string
	logger       *slog.Logger
	handler      http.Handler
}

type serverOptions struct {
	seed         Seed
	signIn       string
	defaultRules bool
	logger       *slog.Logger
}

// Option customizes a fake server.
type Option func(*serverOptions)

// WithSeed replaces the embedded default dataset.
func WithSeed(seed Seed) Option {
	return func(o *serverOptions) { o.seed = seed }
}

// WithSignInUser selects which seed user the authorize endpoint signs in,
// by id or userPrincipalName. The default is the first seed user.
func WithSignInUser(ref string) Option {
	return func(o *serverOptions) { o.signIn = ref }
}

// WithDefaultScopeRules enforces a realistic delegated-permission model:
// reads need User.Read / User.ReadBasic.All, writes on other users need
// User.ReadWrite.All, extensions need User.ReadWrite, and the organization
// endpoint needs Directory.AccessAsUser.All.
func WithDefaultScopeRules() Option {
	return func(o *serverOptions) { o.defaultRules = true }
}

// WithLogger emits a debug line per request, useful when the fake backs a
// local development server.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// New builds an unstarted fake. Callers serve Handler() themselves and then
// call SetBaseURL with the externally reachable root URL.
func New(opts ...Option) (*Server, error) {
	o := serverOptions{seed: DefaultSeed(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	s := &Server{
		defaultRules: o.defaultRules,
		codes:        map[string]*authGrant{},
		refresh:      map[string]*authGrant{},
		key:          key,
		kid:          uuid.NewString(),
		logger:       o.logger,
	}
	if err := s.load(o.seed, o.signIn); err != nil {
		return nil, err
	}
	s.handler = s.buildHandler()
	return s, nil
}

// NewServer starts a fake on an ephemeral port and closes it when the test
// finishes.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s, err := New(opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.SetBaseURL(ts.URL)
	return s
}

func (s *Server) load(seed Seed, signIn string) error {
	s.tenantID = seed.TenantID
	if s.tenantID == "" {
		s.tenantID = "00000000-0000-4000-b000-000000000000"
	}
	s.domains = append([]SeedDomain(nil), seed.VerifiedDomains...)

	for i, su := range seed.Users {
		u := &fakeUser{
			Kind:              su.Kind,
			ID:                su.ID,
			DisplayName:       su.DisplayName,
			UserPrincipalName: su.UserPrincipalName,
			Mail:              su.Mail,
			MobilePhone:       su.MobilePhone,
			AccountEnabled:    su.AccountEnabled == nil || *su.AccountEnabled,
			Consumer:          su.Consumer,
		}
		if u.Kind == "" {
			u.Kind = kindUser
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.UserPrincipalName == "" {
			return fmt.Errorf("seed user %d: userPrincipalName is required", i)
		}
		if s.findUserLocked(u.ID) != nil || s.findUserLocked(u.UserPrincipalName) != nil {
			return fmt.Errorf("seed user %q: duplicate id or userPrincipalName", u.UserPrincipalName)
		}
		if su.Photo != "" {
			photo, err := base64.StdEncoding.DecodeString(su.Photo)
			if err != nil {
				return fmt.Errorf("seed user %q: decode photo: %w", u.UserPrincipalName, err)
			}
			u.Photo = photo
		}
		if su.RoamingSettings != nil {
			settings := *su.RoamingSettings
			u.Settings = &settings
		}
		s.users = append(s.users, u)
	}

	// Managers resolve after all users exist so forward references work.
	for i, su := range seed.Users {
		if su.Manager == "" {
			continue
		}
		m := s.findUserLocked(su.Manager)
		if m == nil {
			return fmt.Errorf("seed user %q: unknown manager %q", su.UserPrincipalName, su.Manager)
		}
		s.users[i].ManagerID = m.ID
	}

	if len(s.users) == 0 {
		return fmt.Errorf("seed has no users")
	}
	signInUser := s.users[0]
	if signIn != "" {
		if signInUser = s.findUserLocked(signIn); signInUser == nil {
			return fmt.Errorf("sign-in user %q not in seed", signIn)
		}
	}
	s.signInID = signInUser.ID
	return nil
}

// Handler returns the combined identity-provider and resource handler.
func (s *Server) Handler() http.Handler { return s.handler }

// SetBaseURL records the externally reachable root URL; issued links and the
// discovery document derive from it.
func (s *Server) SetBaseURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = strings.TrimRight(u, "/")
}

// BaseURL is the root URL, which doubles as the OpenID Connect issuer.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// GraphURL is the base URL of the resource API.
func (s *Server) GraphURL() string { return s.BaseURL() + "/v1.0" }

// IssuerURL is the OpenID Connect issuer.
func (s *Server) IssuerURL() string { return s.BaseURL() }

// TenantID is the fake tenant's id, carried in issued tokens.
func (s *Server) TenantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID
}

// SignInUser reports the account the authorize endpoint signs in.
func (s *Server) SignInUser() SeedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byIDLocked(s.signInID)
	return SeedUser{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		UserPrincipalName: u.UserPrincipalName,
		Mail:              u.Mail,
		MobilePhone:       u.MobilePhone,
		Consumer:          u.Consumer,
	}
}

// Require adds a scope rule: matching resource calls fail with 403 unless the
// token carries the scope.
func (s *Server) Require(method, pathPrefix, scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, ScopeRule{Method: method, PathPrefix: pathPrefix, Scope: scope})
}

// Requests returns a copy of the resource calls seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// ResetRequests clears the recorded resource calls.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// AccessToken mints a bearer token for ref with the given delegated scopes,
// bypassing the sign-in flow. Tests that hit the resource API directly use it.
func (s *Server) AccessToken(ref string, scopes ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUserLocked(ref)
	if u == nil {
		panic(fmt.Sprintf("graphtest: AccessToken: unknown user %q", ref))
	}
	token, err := s.signAccessTokenLocked(u, scopes)
	if err != nil {
		panic(fmt.Sprintf("graphtest: sign access token: %v", err))
	}
	return token
}

func (s *Server) findUserLocked(ref string) *fakeUser {
	for _, u := range s.users {
		if u.ID == ref || strings.EqualFold(u.UserPrincipalName, ref) {
			return u
		}
	}
	return nil
}

func (s *Server) byIDLocked(id string) *fakeUser {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) buildHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.logger.Debug("fake directory", "method", req.Method, "path", req.URL.Path)
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/.well-known/openid-configuration", s.handleDiscovery)
	r.Get("/authorize", s.handleAuthorize)
	r.Post("/token", s.handleToken)
	r.Get("/jwks", s.handleJWKS)

	r.Route("/v1.0", func(api chi.Router) {
		api.Use(s.requireBearer)
		api.Get("/organization", s.handleOrganization)
		api.Get("/users", s.handleListUsers)
		api.Post("/users", s.handleCreateUser)
		api.Route("/me", s.mountUserRoutes)
		api.Route("/users/{id}", s.mountUserRoutes)
	})
	return r
}

func (s *Server) mountUserRoutes(r chi.Router) {
	r.Get("/", s.handleGetUser)
	r.Patch("/", s.handlePatchUser)
	r.Delete("/", s.handleDeleteUser)
	r.Get("/manager", s.handleManager)
	r.Get("/directReports", s.handleDirectReports)
	r.Get("/photo/$value", s.handlePhoto)
	r.Post("/extensions", s.handleCreateExtension)
	r.Get("/extensions/{name}", s.handleGetExtension)
	r.Patch("/extensions/{name}", s.handleReplaceExtension)
	r.Delete("/extensions/{name}", s.handleDeleteExtension)
}

// requireBearer validates the bearer token, records the call, and enforces
// scope rules before handing off to the resource handlers.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeODataError(w, http.StatusUnauthorized, "InvalidAuthenticationToken", "Access token is empty or malformed.")
			return
		}
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return &s.key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil || !tok.Valid {
			writeODataError(w, http.StatusUnauthorized, "InvalidAuthenticationToken", "Access token validation failure.")
			return
		}
		claims, _ := tok.Claims.(jwt.MapClaims)
		sub, _ := claims["sub"].(string)
		scp, _ := claims["scp"].(string)
		c := caller{id: sub, scopes: strings.Fields(scp)}

		path := strings.TrimPrefix(r.URL.Path, "/v1.0")
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{Method: r.Method, Path: path})
		missing := s.missingScopeLocked(r.Method, path, c)
		s.mu.Unlock()
		if missing != "" {
			writeODataError(w, http.StatusForbidden, "Authorization_RequestDenied", "Insufficient privileges to complete the operation.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, c)))
	})
}

// missingScopeLocked returns the first scope the token lacks for this call,
// or "" when the call is allowed.
func (s *Server) missingScopeLocked(method, path string, c caller) string {
	has := func(scope string) bool { return slices.Contains(c.scopes, scope) }
	anyOf := func(scopes ...string) bool {
		for _, scope := range scopes {
			if has(scope) {
				return true
			}
		}
		return false
	}

	for _, rule := range s.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if !strings.HasPrefix(path, rule.PathPrefix) {
			continue
		}
		if !has(rule.Scope) {
			return rule.Scope
		}
	}
	if !s.defaultRules {
		return ""
	}

	self := s.isSelfPathLocked(path, c.id)
	switch {
	case strings.Contains(path, "/extensions"):
		if self {
			if !anyOf("User.ReadWrite", "User.ReadWrite.All") {
				return "User.ReadWrite"
			}
		} else if !has("User.ReadWrite.All") {
			return "User.ReadWrite.All"
		}
	case path == "/organization":
		if !has("Directory.AccessAsUser.All") {
			return "Directory.AccessAsUser.All"
		}
	case method == http.MethodGet:
		if self {
			if !has("User.Read") {
				return "User.Read"
			}
		} else if !anyOf("User.ReadBasic.All", "User.Read.All", "User.ReadWrite.All", "Directory.AccessAsUser.All") {
			return "User.ReadBasic.All"
		}
	case method == http.MethodPost, method == http.MethodDelete:
		if !has("User.ReadWrite.All") {
			return "User.ReadWrite.All"
		}
	case method == http.MethodPatch:
		if self {
			if !has("User.Read") {
				return "User.Read"
			}
		} else if !has("User.ReadWrite.All") {
			return "User.ReadWrite.All"
		}
	}
	return ""
}

func (s *Server) isSelfPathLocked(path, callerID string) bool {
	if path == "/me" || strings.HasPrefix(path, "/me/") {
		return true
	}
	rest, ok := strings.CutPrefix(path, "/users/")
	if !ok {
		return false
	}
	ref := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		ref = rest[:i]
	}
	u := s.findUserLocked(ref)
	return u != nil && u.ID == callerID
}

// requestUserLocked resolves the user addressed by the request: the {id}
// route parameter when present, otherwise the token subject (the /me routes).
func (s *Server) requestUserLocked(r *http.Request) *fakeUser {
	ref := chi.URLParam(r, "id")
	if ref == "" {
		c, _ := r.Context().Value(callerKey{}).(caller)
		ref = c.id
	}
	return s.findUserLocked(ref)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	var body map[string]any
	if u != nil {
		body = userJSON(u)
	}
	s.mu.Unlock()

	if body == nil {
		writeNotFound(w, "user")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var list []*fakeUser
	for _, u := range s.users {
		if u.Kind == kindUser {
			list = append(list, u)
		}
	}
	if strings.Contains(r.URL.Query().Get("$orderby"), "displayName") {
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].DisplayName) < strings.ToLower(list[j].DisplayName)
		})
	}
	body := s.pageLocked(list, r, "/v1.0/users")
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDirectReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	var body map[string]any
	if u != nil {
		var reports []*fakeUser
		for _, v := range s.users {
			if v.ManagerID == u.ID {
				reports = append(reports, v)
			}
		}
		body = s.pageLocked(reports, r, "/v1.0/users/"+u.ID+"/directReports")
	}
	s.mu.Unlock()

	if body == nil {
		writeNotFound(w, "user")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// pageLocked slices list by $top and $skiptoken and builds a continuation
// link that preserves the caller's query verbatim.
func (s *Server) pageLocked(list []*fakeUser, r *http.Request, basePath string) map[string]any {
	q := r.URL.Query()
	top := defaultPageSize
	if v, err := strconv.Atoi(q.Get("$top")); err == nil && v > 0 {
		top = v
	}
	skip := 0
	if v, err := strconv.Atoi(q.Get("$skiptoken")); err == nil && v > 0 {
		skip = v
	}

	if skip > len(list) {
		skip = len(list)
	}
	end := skip + top
	if end > len(list) {
		end = len(list)
	}

	value := make([]map[string]any, 0, end-skip)
	for _, u := range list[skip:end] {
		value = append(value, userJSON(u))
	}

	body := map[string]any{"value": value}
	if end < len(list) {
		next := q
		next.Set("$skiptoken", strconv.Itoa(end))
		body["@odata.nextLink"] = s.baseURL + basePath + "?" + next.Encode()
	}
	return body
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccountEnabled    *bool   `json:"accountEnabled"`
		DisplayName       string  `json:"displayName"`
		MailNickname      string  `json:"mailNickname"`
		UserPrincipalName string  `json:"userPrincipalName"`
		MobilePhone       *string `json:"mobilePhone"`
		PasswordProfile   struct {
			Password                      string `json:"password"`
			ForceChangePasswordNextSignIn bool   `json:"forceChangePasswordNextSignIn"`
		} `json:"passwordProfile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Unable to read JSON request payload.")
		return
	}
	for name, v := range map[string]string{
		"displayName":       body.DisplayName,
		"mailNickname":      body.MailNickname,
		"userPrincipalName": body.UserPrincipalName,
		"password":          body.PasswordProfile.Password,
	} {
		if strings.TrimSpace(v) == "" {
			writeODataError(w, http.StatusBadRequest, "Request_BadRequest", fmt.Sprintf("A value is required for property '%s' of resource 'User'.", name))
			return
		}
	}

	s.mu.Lock()
	if s.findUserLocked(body.UserPrincipalName) != nil {
		s.mu.Unlock()
		writeODataError(w, http.StatusConflict, "Request_MultipleObjectsWithSameKeyValue", "Another object with the same value for property userPrincipalName already exists.")
		return
	}
	u := &fakeUser{
		Kind:              kindUser,
		ID:                uuid.NewString(),
		DisplayName:       body.DisplayName,
		UserPrincipalName: body.UserPrincipalName,
		AccountEnabled:    body.AccountEnabled == nil || *body.AccountEnabled,
	}
	if body.MobilePhone != nil {
		u.MobilePhone = *body.MobilePhone
	}
	s.users = append(s.users, u)
	created := userJSON(u)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Unable to read JSON request payload.")
		return
	}

	s.mu.Lock()
	u := s.requestUserLocked(r)
	if u != nil {
		if v, ok := body["mobilePhone"]; ok {
			switch phone := v.(type) {
			case nil:
				u.MobilePhone = ""
			case string:
				u.MobilePhone = phone
			default:
				s.mu.Unlock()
				writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Invalid value for property 'mobilePhone'.")
				return
			}
		}
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	if u != nil {
		s.users = slices.DeleteFunc(s.users, func(v *fakeUser) bool { return v.ID == u.ID })
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleManager(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	var body map[string]any
	if u != nil && u.ManagerID != "" {
		if m := s.byIDLocked(u.ManagerID); m != nil {
			body = map[string]any{"@odata.type": m.Kind, "id": m.ID, "displayName": m.DisplayName}
		}
	}
	s.mu.Unlock()

	if body == nil {
		writeNotFound(w, "manager")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	var photo []byte
	if u != nil {
		photo = u.Photo
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	if len(photo) == 0 {
		writeODataError(w, http.StatusNotFound, "ImageNotFound", "The photo wasn't found.")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(photo) //nolint:errcheck
}

func (s *Server) handleOrganization(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doms := make([]map[string]any, 0, len(s.domains))
	for _, d := range s.domains {
		doms = append(doms, map[string]any{"name": d.Name, "isDefault": d.Default})
	}
	body := map[string]any{"value": []map[string]any{{"id": s.tenantID, "verifiedDomains": doms}}}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleGetExtension(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	var body map[string]any
	if u != nil && u.Settings != nil && chi.URLParam(r, "name") == extensionName {
		body = extensionJSON(u.Settings)
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	if body == nil {
		writeNotFound(w, extensionName)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateExtension(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExtensionName string `json:"extensionName"`
		Theme         string `json:"theme"`
		Color         string `json:"color"`
		Language      string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Unable to read JSON request payload.")
		return
	}
	if body.ExtensionName != extensionName {
		writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Unsupported extension name.")
		return
	}

	s.mu.Lock()
	u := s.requestUserLocked(r)
	conflict := u != nil && u.Settings != nil
	if u != nil && !conflict {
		u.Settings = &SeedSettings{Theme: body.Theme, Color: body.Color, Language: body.Language}
	}
	var created map[string]any
	if u != nil && !conflict {
		created = extensionJSON(u.Settings)
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	if conflict {
		writeODataError(w, http.StatusConflict, "Conflict", "An extension already exists with given id.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleReplaceExtension(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme    string `json:"theme"`
		Color    string `json:"color"`
		Language string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeODataError(w, http.StatusBadRequest, "Request_BadRequest", "Unable to read JSON request payload.")
		return
	}

	s.mu.Lock()
	u := s.requestUserLocked(r)
	found := u != nil && u.Settings != nil && chi.URLParam(r, "name") == extensionName
	if found {
		// A replace is wholesale: absent properties come back empty.
		u.Settings = &SeedSettings{Theme: body.Theme, Color: body.Color, Language: body.Language}
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	if !found {
		writeNotFound(w, extensionName)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExtension(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.requestUserLocked(r)
	found := u != nil && u.Settings != nil && chi.URLParam(r, "name") == extensionName
	if found {
		u.Settings = nil
	}
	s.mu.Unlock()

	if u == nil {
		writeNotFound(w, "user")
		return
	}
	if !found {
		writeNotFound(w, extensionName)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userJSON(u *fakeUser) map[string]any {
	return map[string]any{
		"id":                u.ID,
		"displayName":       u.DisplayName,
		"userPrincipalName": u.UserPrincipalName,
		"mail":              nullable(u.Mail),
		"mobilePhone":       nullable(u.MobilePhone),
		"accountEnabled":    u.AccountEnabled,
	}
}

func extensionJSON(s *SeedSettings) map[string]any {
	return map[string]any{
		"@odata.type":   "microsoft.graph.openTypeExtension",
		"extensionName": extensionName,
		"id":            extensionName,
		"theme":         s.Theme,
		"color":         s.Color,
		"lang":          s.Language,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeNotFound(w http.ResponseWriter, resource string) {
	writeODataError(w, http.StatusNotFound, "Request_ResourceNotFound",
		fmt.Sprintf("Resource '%s' does not exist or one of its queried reference-property objects are not present.", resource))
}

func writeODataError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}

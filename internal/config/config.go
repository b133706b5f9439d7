// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default permission-scope sets requested from the identity provider. The
// sign-in scopes establish identity and refreshability; the directory sets
// gate the portal's read and write surfaces.
var (
	DefaultSignInScopes   = []string{"openid", "profile", "email", "offline_access"}
	DefaultBasicScopes    = []string{"User.Read", "User.ReadBasic.All"}
	DefaultElevatedScopes = []string{"User.Read", "User.ReadWrite.All", "Directory.AccessAsUser.All"}
	DefaultSettingsScopes = []string{"User.ReadWrite"}
)

// AuthConfig holds identity provider and delegated-permission configuration.
type AuthConfig struct {
	TenantID     string // directory tenant (GUID or domain)
	ClientID     string // app registration client id
	ClientSecret string // confidential client secret
	RedirectURL  string // OAuth2 redirect, must match the app registration
	IssuerURL    string // OIDC issuer override (defaults to the tenant's v2.0 issuer)

	// Scope sets. Basic covers sign-in and self-service reads, Elevated adds
	// org-wide read/write for the admin views, Settings covers the roaming-
	// settings extension document.
	ScopesSignIn   []string
	ScopesBasic    []string
	ScopesElevated []string
	ScopesSettings []string
}

// Issuer returns the effective OIDC issuer URL.
func (a *AuthConfig) Issuer() string {
	if a.IssuerURL != "" {
		return a.IssuerURL
	}
	return "https://login.microsoftonline.com/" + a.TenantID + "/v2.0"
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.TenantID == "" {
		return fmt.Errorf("AAD_TENANT_ID is required")
	}
	if a.ClientID == "" {
		return fmt.Errorf("AAD_CLIENT_ID is required")
	}
	if a.ClientSecret == "" {
		return fmt.Errorf("AAD_CLIENT_SECRET is required")
	}
	return nil
}

// Config holds the configuration for the portal server.
type Config struct {
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	// GraphBaseURL is the root of the remote directory API, without a
	// trailing slash (default "https://graph.microsoft.com/v1.0").
	GraphBaseURL string

	// Session cookie keys. Both are hashed to fixed-length keys before use,
	// so any non-empty string works; defaults are insecure and rejected in
	// production.
	SessionHashKey  string
	SessionBlockKey string

	// Audit trail storage (the portal's own records; no directory data).
	AuditDBPath    string        // SQLite file path (default "portal_audit.sqlite")
	AuditRetention time.Duration // prune entries older than this (default 90 days)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 20)
	RateLimitBurst int     // burst capacity (default 60)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Dev fake directory: run an in-process directory + identity stub so the
	// portal works without a tenant. Never allowed in production.
	DevFakeDirectory     bool
	DevFakeDirectoryAddr string // listen address for the stub (default "127.0.0.1:9075")

	// Auth holds identity provider and delegated-permission configuration.
	Auth AuthConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// Insecure development defaults for the session cookie keys.
const (
	devSessionHashKey  = "dev-session-hash-key-change-me"
	devSessionBlockKey = "dev-session-block-key-change-me"
)

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:           os.Getenv("LISTEN_ADDR"),
		TLSCertFile:          os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:           os.Getenv("TLS_KEY_FILE"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		Env:                  os.Getenv("ENV"),
		GraphBaseURL:         os.Getenv("GRAPH_BASE_URL"),
		SessionHashKey:       os.Getenv("SESSION_HASH_KEY"),
		SessionBlockKey:      os.Getenv("SESSION_BLOCK_KEY"),
		AuditDBPath:          os.Getenv("AUDIT_DB_PATH"),
		DevFakeDirectory:     parseBoolEnvDefault("DEV_FAKE_DIRECTORY", false),
		DevFakeDirectoryAddr: os.Getenv("DEV_FAKE_DIRECTORY_ADDR"),
	}

	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Audit retention
	if v := os.Getenv("AUDIT_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AuditRetention = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid AUDIT_RETENTION %q — using default", v))
		}
	}

	// Auth config
	cfg.Auth = AuthConfig{
		TenantID:       os.Getenv("AAD_TENANT_ID"),
		ClientID:       os.Getenv("AAD_CLIENT_ID"),
		ClientSecret:   os.Getenv("AAD_CLIENT_SECRET"),
		RedirectURL:    os.Getenv("AAD_REDIRECT_URL"),
		IssuerURL:      os.Getenv("AUTH_ISSUER_URL"),
		ScopesSignIn:   scopeListEnv("SCOPES_SIGNIN", DefaultSignInScopes),
		ScopesBasic:    scopeListEnv("SCOPES_BASIC", DefaultBasicScopes),
		ScopesElevated: scopeListEnv("SCOPES_ELEVATED", DefaultElevatedScopes),
		ScopesSettings: scopeListEnv("SCOPES_SETTINGS", DefaultSettingsScopes),
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.microsoft.com/v1.0"
	}
	cfg.GraphBaseURL = strings.TrimRight(cfg.GraphBaseURL, "/")
	if cfg.AuditDBPath == "" {
		cfg.AuditDBPath = "portal_audit.sqlite"
	}
	if cfg.AuditRetention == 0 {
		cfg.AuditRetention = 90 * 24 * time.Hour
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 60
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.DevFakeDirectoryAddr == "" {
		cfg.DevFakeDirectoryAddr = "127.0.0.1:9075"
	}
	if cfg.Auth.RedirectURL == "" {
		cfg.Auth.RedirectURL = "http://localhost:8080/auth/callback"
	}
	if cfg.SessionHashKey == "" {
		cfg.SessionHashKey = devSessionHashKey
		cfg.Warnings = append(cfg.Warnings, "SESSION_HASH_KEY not set — using insecure default. Set SESSION_HASH_KEY in production!")
	}
	if cfg.SessionBlockKey == "" {
		cfg.SessionBlockKey = devSessionBlockKey
		cfg.Warnings = append(cfg.Warnings, "SESSION_BLOCK_KEY not set — using insecure default. Set SESSION_BLOCK_KEY in production!")
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	if !cfg.DevFakeDirectory {
		if err := cfg.Auth.Validate(); err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("identity provider not fully configured: %v (set DEV_FAKE_DIRECTORY=true for a local stub)", err))
		}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.DevFakeDirectory {
			return nil, fmt.Errorf("DEV_FAKE_DIRECTORY is not allowed in production (ENV=production)")
		}
		if err := cfg.Auth.Validate(); err != nil {
			return nil, fmt.Errorf("identity provider must be configured in production: %w", err)
		}
		if cfg.SessionHashKey == devSessionHashKey || cfg.SessionBlockKey == devSessionBlockKey {
			return nil, fmt.Errorf("SESSION_HASH_KEY and SESSION_BLOCK_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

// scopeListEnv parses a scope list from the environment. Values may be
// separated by commas or spaces.
func scopeListEnv(key string, defaults []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), defaults...)
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaults...)
	}
	return out
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

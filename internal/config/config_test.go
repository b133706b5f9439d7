package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("GRAPH_BASE_URL", "")
	t.Setenv("AUDIT_DB_PATH", "")
	t.Setenv("SESSION_HASH_KEY", "")
	t.Setenv("SESSION_BLOCK_KEY", "")
	t.Setenv("ENV", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.GraphBaseURL)
	assert.Equal(t, "portal_audit.sqlite", cfg.AuditDBPath)
	assert.Equal(t, 90*24*time.Hour, cfg.AuditRetention)
	assert.Equal(t, DefaultBasicScopes, cfg.Auth.ScopesBasic)
	assert.Equal(t, DefaultElevatedScopes, cfg.Auth.ScopesElevated)
	assert.Equal(t, "http://localhost:8080/auth/callback", cfg.Auth.RedirectURL)
	assert.NotEmpty(t, cfg.Warnings, "insecure session key defaults should warn")
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("GRAPH_BASE_URL", "https://graph.example.test/v1.0/")
	t.Setenv("AAD_TENANT_ID", "contoso.example")
	t.Setenv("AAD_CLIENT_ID", "client-1")
	t.Setenv("AAD_CLIENT_SECRET", "secret-1")
	t.Setenv("AAD_REDIRECT_URL", "https://portal.example/auth/callback")
	t.Setenv("SCOPES_BASIC", "User.Read, User.ReadBasic.All")
	t.Setenv("AUDIT_RETENTION", "720h")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	// Trailing slash is trimmed so path joining stays predictable.
	assert.Equal(t, "https://graph.example.test/v1.0", cfg.GraphBaseURL)
	assert.Equal(t, "contoso.example", cfg.Auth.TenantID)
	assert.Equal(t, []string{"User.Read", "User.ReadBasic.All"}, cfg.Auth.ScopesBasic)
	assert.Equal(t, 720*time.Hour, cfg.AuditRetention)
	assert.Equal(t, "https://login.microsoftonline.com/contoso.example/v2.0", cfg.Auth.Issuer())
}

func TestLoadFromEnv_IssuerOverride(t *testing.T) {
	t.Setenv("AAD_TENANT_ID", "contoso.example")
	t.Setenv("AUTH_ISSUER_URL", "http://127.0.0.1:9075")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9075", cfg.Auth.Issuer())
}

func TestLoadFromEnv_ProductionRejectsInsecureDefaults(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AAD_TENANT_ID", "contoso.example")
	t.Setenv("AAD_CLIENT_ID", "client-1")
	t.Setenv("AAD_CLIENT_SECRET", "secret-1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example")
	t.Setenv("ALLOW_INSECURE_HTTP", "true")

	// Default session keys are fatal in production.
	t.Setenv("SESSION_HASH_KEY", "")
	t.Setenv("SESSION_BLOCK_KEY", "")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_HASH_KEY")

	t.Setenv("SESSION_HASH_KEY", "prod-hash-key")
	t.Setenv("SESSION_BLOCK_KEY", "prod-block-key")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFromEnv_ProductionRejectsFakeDirectory(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DEV_FAKE_DIRECTORY", "true")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEV_FAKE_DIRECTORY")
}

func TestLoadFromEnv_ProductionRequiresAuth(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_HASH_KEY", "prod-hash-key")
	t.Setenv("SESSION_BLOCK_KEY", "prod-block-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example")
	t.Setenv("ALLOW_INSECURE_HTTP", "true")
	t.Setenv("AAD_TENANT_ID", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAD_TENANT_ID")
}

func TestLoadFromEnv_ProductionRejectsCORSWildcard(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AAD_TENANT_ID", "contoso.example")
	t.Setenv("AAD_CLIENT_ID", "client-1")
	t.Setenv("AAD_CLIENT_SECRET", "secret-1")
	t.Setenv("SESSION_HASH_KEY", "prod-hash-key")
	t.Setenv("SESSION_BLOCK_KEY", "prod-block-key")
	t.Setenv("ALLOW_INSECURE_HTTP", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestLoadFromEnv_TLSFilesMustBePaired(t *testing.T) {
	t.Setenv("TLS_CERT_FILE", "/tmp/cert.pem")
	t.Setenv("TLS_KEY_FILE", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestScopeListEnv(t *testing.T) {
	t.Setenv("SCOPES_TEST_LIST", "")
	assert.Equal(t, []string{"a", "b"}, scopeListEnv("SCOPES_TEST_LIST", []string{"a", "b"}))

	t.Setenv("SCOPES_TEST_LIST", "User.Read User.ReadBasic.All")
	assert.Equal(t, []string{"User.Read", "User.ReadBasic.All"}, scopeListEnv("SCOPES_TEST_LIST", nil))

	t.Setenv("SCOPES_TEST_LIST", "User.Read,  ,User.ReadWrite")
	assert.Equal(t, []string{"User.Read", "User.ReadWrite"}, scopeListEnv("SCOPES_TEST_LIST", nil))
}

func writeDotEnv(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesEntries(t *testing.T) {
	t.Setenv("PORTAL_ENV_A", "")
	t.Setenv("PORTAL_ENV_B", "")
	t.Setenv("PORTAL_ENV_C", "")
	path := writeDotEnv(t, "# portal settings\nPORTAL_ENV_A=one\nPORTAL_ENV_B=\"two words\"\nPORTAL_ENV_C='three'\nnot a pair\n")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "one", os.Getenv("PORTAL_ENV_A"))
	assert.Equal(t, "two words", os.Getenv("PORTAL_ENV_B"), "double quotes are stripped")
	assert.Equal(t, "three", os.Getenv("PORTAL_ENV_C"), "single quotes are stripped")
}

func TestLoadDotEnv_EnvVarWins(t *testing.T) {
	t.Setenv("PORTAL_ENV_PRECEDENCE", "from_env")
	path := writeDotEnv(t, "PORTAL_ENV_PRECEDENCE=from_file\n")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "from_env", os.Getenv("PORTAL_ENV_PRECEDENCE"))
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestTokenDecodePrintsClaims(t *testing.T) {
	now := time.Now()
	raw := signedTestToken(t, jwt.MapClaims{
		"sub":                "00000000-0000-4000-a000-000000000001",
		"preferred_username": "dana@contoso.example",
		"name":               "Dana Quinn",
		"tid":                "tenant-1",
		"scp":                "User.Read User.ReadBasic.All",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
	})

	out, err := runCLI(t, "token", "decode", raw)
	require.NoError(t, err)

	assert.Contains(t, out, "00000000-0000-4000-a000-000000000001")
	assert.Contains(t, out, "dana@contoso.example")
	assert.Contains(t, out, "User.Read User.ReadBasic.All")
	assert.Contains(t, out, "Expires")
	assert.Contains(t, out, "(in ")
}

func TestTokenDecodeMarksExpiredTokens(t *testing.T) {
	raw := signedTestToken(t, jwt.MapClaims{
		"sub": "dana",
		"exp": time.Now().Add(-2 * time.Hour).Unix(),
	})

	out, err := runCLI(t, "token", "decode", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "expired")
	assert.Contains(t, out, "ago")
}

func TestTokenDecodeJSONOutput(t *testing.T) {
	raw := signedTestToken(t, jwt.MapClaims{
		"sub": "dana",
		"scp": "User.Read",
	})

	out, err := runCLI(t, "-o", "json", "token", "decode", raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &claims))
	assert.Equal(t, "dana", claims["sub"])
	assert.Equal(t, "User.Read", claims["scp"])
}

func TestTokenDecodeReadsStdin(t *testing.T) {
	raw := signedTestToken(t, jwt.MapClaims{"sub": "morgan"})
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(raw + "\n"))
	rootCmd.SetArgs([]string{"token", "decode"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "morgan")
}

func TestTokenDecodeRejectsGarbage(t *testing.T) {
	_, err := runCLI(t, "token", "decode", "not-a-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode token")
}

func TestTokenDecodeRejectsEmptyInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader("\n"))
	rootCmd.SetArgs([]string{"token", "decode"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

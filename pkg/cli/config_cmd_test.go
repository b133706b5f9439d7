package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetAndShowRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var buf bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "set", "db", "/var/lib/portal/audit.sqlite"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Set db")

	data, err := os.ReadFile(filepath.Join(home, ".dirctl", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/var/lib/portal/audit.sqlite")

	buf.Reset()
	rootCmd = newRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config", "show"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "/var/lib/portal/audit.sqlite")
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	_, err := runCLI(t, "config", "set", "host", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestConfigSetValidatesOutputFormat(t *testing.T) {
	_, err := runCLI(t, "config", "set", "output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestConfigFileSuppliesDBDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".dirctl"), 0o700))

	missing := filepath.Join(home, "missing.sqlite")
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".dirctl", "config.yaml"),
		[]byte("db: "+missing+"\n"),
		0o600,
	))

	// The audit command resolves the path from the config file, so the
	// error names the configured path rather than the built-in default.
	var buf bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"audit", "list"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestOutputFormatValidationAtRoot(t *testing.T) {
	_, err := runCLI(t, "-o", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "default config should be written")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
addr: ":9090"
public_base_url: "https://tramcham.vn"
store:
  driver: script
  script_url: "https://script.google.com/macros/s/abc/exec"
  timeout: 3s
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://tramcham.vn", cfg.PublicBaseURL)
	assert.Equal(t, DriverScript, cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "/loi-chuc", cfg.SharePath, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o600))

	t.Setenv("TRAMCHAM_ADDR", ":7070")
	t.Setenv("TRAMCHAM_STORE_SQLITE_PATH", "/tmp/other.db")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "/tmp/other.db", cfg.Store.SQLitePath)
}

func TestLoad_UnknownDriverFailsValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: mongo\n"), 0o600))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoad_OverridesApplyBeforeValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: script\n"), 0o600))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err, "incomplete script settings must not fail the load")
	require.Error(t, cfg.Validate())

	cfg.UpdateFrom(Config{Store: StoreConfig{Driver: DriverSQLite}})
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Store.Driver = DriverSheets
	assert.Error(t, cfg.Validate())

	cfg.Store.SpreadsheetID = "sheet"
	cfg.Store.SheetsCredentialsPath = "creds.json"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_PublicBaseURL(t *testing.T) {
	for _, base := range []string{"", "tramcham.vn", "://no-scheme"} {
		cfg := Default()
		cfg.PublicBaseURL = base
		assert.Error(t, cfg.Validate(), "base %q", base)
	}

	cfg := Default()
	cfg.PublicBaseURL = "https://tramcham.vn"
	assert.NoError(t, cfg.Validate())
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", Store: StoreConfig{Driver: DriverScript}})

	assert.Equal(t, ":1", cfg.Addr)
	assert.Equal(t, DriverScript, cfg.Store.Driver)
	assert.Equal(t, "tramcham.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

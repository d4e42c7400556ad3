package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Seal Skin")
	cfg.Business.StoreID = 3
	cfg.Store.Backend = "sqlite"
	cfg.WizardAPI.BaseURL = "http://localhost:5000"
	cfg.WizardAPI.DraftID = 17

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.Equal(t, cfg.Store, got.Store)
	assert.Equal(t, cfg.Valuation, got.Valuation)
	assert.Equal(t, cfg.Server, got.Server)
	assert.Equal(t, cfg.WizardAPI, got.WizardAPI)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Zero(t, cfg.Business.StoreID)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "data", cfg.Store.Path)
	assert.Equal(t, "USD", cfg.Valuation.Currency)
	assert.False(t, cfg.Valuation.StrictCSV)
	assert.Equal(t, 5, cfg.Valuation.SampleSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.WizardAPI.BaseURL)
	assert.Equal(t, 15, cfg.WizardAPI.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "logs/run-log.csv", cfg.Log.RunLog)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "backend: file")
	assert.Contains(t, contents, "currency: USD")
	assert.Contains(t, contents, "strict_csv: false")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("STOCKVAL_STORE_BACKEND", "sqlite")
	t.Setenv("STOCKVAL_WIZARD_URL", " http://wizard:5000 ")
	t.Setenv("STOCKVAL_LOG_LEVEL", "")

	cfg := Default("Test Biz")
	require.NoError(t, ApplyEnv(cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "http://wizard:5000", cfg.WizardAPI.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level, "empty variables do not override")
}

func TestApplyEnv_File(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("STOCKVAL_SERVER_ADDR=:9999\n"), 0o644))
	t.Setenv("STOCKVAL_SERVER_ADDR", "")
	// godotenv does not override variables that are already set, so unset it.
	require.NoError(t, os.Unsetenv("STOCKVAL_SERVER_ADDR"))

	cfg := Default("Test Biz")
	require.NoError(t, ApplyEnv(cfg, envPath))
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	cfg := Default("x")
	cfg.Valuation.Currency = ""
	assert.Error(t, cfg.Validate())

	cfg = Default("x")
	cfg.Valuation.SampleSize = -1
	assert.Error(t, cfg.Validate())
}

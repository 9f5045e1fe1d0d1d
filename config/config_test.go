package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.ResultTTL)
	assert.Equal(t, "artifacts/pipeline.json", cfg.Model.CachePath)
	assert.Equal(t, "fill", cfg.Model.MissingFeatures)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, int32(3), cfg.Export.RiskDecimals)
	assert.Equal(t, "stockout_predictions.csv", cfg.Export.FileName)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  result_ttl: 5m
model:
  url: https://models.example.com/pipeline.json
  missing_features: fail
`), 0o644))
	t.Setenv("STOCKOUT_MODEL_FETCH_TIMEOUT", "3s")
	t.Setenv("STOCKOUT_CACHE_REDIS_KEY", "other:key")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.ResultTTL)
	assert.Equal(t, "https://models.example.com/pipeline.json", cfg.Model.URL)
	assert.Equal(t, "fail", cfg.Model.MissingFeatures)
	assert.Equal(t, 3*time.Second, cfg.Model.FetchTimeout)
	assert.Equal(t, "other:key", cfg.Cache.Redis.Key)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := LoadDefault()
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"policy":    func(c *Config) { c.Model.MissingFeatures = "impute" },
		"backend":   func(c *Config) { c.Cache.Backend = "s3" },
		"redis":     func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" },
		"redis url": func(c *Config) { c.Cache.Backend = "redis"; c.Model.URL = "" },
		"rename":    func(c *Config) { c.Normalize.Renames = []RenameRule{{From: "Stock"}} },
		"decimals":  func(c *Config) { c.Export.RiskDecimals = 9 },
		"threshold": func(c *Config) { c.Present.HighlightThreshold = 1.5 },
		"history":   func(c *Config) { c.History.Path = "" },
		"upload":    func(c *Config) { c.Server.MaxUploadMB = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := *base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='scoring_runs'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "scoring_runs", name)

	// reopening is idempotent
	db2, err := OpenDB(path)
	require.NoError(t, err)
	db2.Close()
}

func TestValidate_RedisWithURL(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadDefault()
	require.NoError(t, err)

	cfg.Cache.Backend = "redis"
	cfg.Model.URL = "https://models.example.com/pipeline.json"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Renames(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
normalize:
  renames:
    - from: Stock On Hand
      to: inventory_level
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []RenameRule{{From: "Stock On Hand", To: "inventory_level"}}, cfg.Normalize.Renames)
}

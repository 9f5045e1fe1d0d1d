package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockout-app/config"
	"stockout-app/pipeline"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	artifact, err := filepath.Abs("artifacts/pipeline.json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "app:\n  log_level: error\nmodel:\n  cache_path: " + artifact + "\nhistory:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestScoreCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "predictions.csv")

	rootCmd.SetArgs([]string{
		"--config", writeConfig(t),
		"score",
		"--in", "testdata/inventory_sample.csv",
		"--out", out,
		"--category", "Groceries",
		"--top", "2",
	})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "date,store_id,product_id,category,"))
	assert.True(t, strings.HasSuffix(lines[0], ",stockout_risk,demand_14d,units_at_risk,profit_per_unit,economic_loss"))
	for _, l := range lines[1:] {
		assert.Contains(t, l, ",Groceries,")
	}
}

func TestRenamesExtendDefaults(t *testing.T) {
	m := renames(config.NormalizeConfig{Renames: []config.RenameRule{
		{From: " Stock On Hand ", To: "inventory_level"},
		{From: "Price", To: "unit_price"},
	}})

	assert.Equal(t, "inventory_level", m["Stock On Hand"])
	assert.Equal(t, "unit_price", m["Price"])
	assert.Equal(t, "store_id", m["Store ID"])
	assert.Equal(t, "price", pipeline.DefaultRenames["Price"])
}

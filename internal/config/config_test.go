package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/purchase-order-xml/internal/columns"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMainConfig(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.OpenAI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.OpenAI.RetryBackoff)
	assert.Equal(t, 50*time.Millisecond, cfg.Editor.DragOverDebounce)
	assert.Equal(t, "#333333", cfg.Export.DefaultHeaderColor)
}

func TestLoadMainConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: ./forms
log_level: debug
max_concurrency: 2
editor:
  allow_row_reorder: true
  drag_over_debounce: 100ms
export:
  write_pdf: true
  transforms:
    - field: poNumber
      actions:
        - type: uppercase
columns:
  rules:
    - keyword: sku
      kind: item
    - keyword: cost
      kind: rate
`), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./forms", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.True(t, cfg.Editor.AllowRowReorder)
	assert.Equal(t, 100*time.Millisecond, cfg.Editor.DragOverDebounce)
	assert.True(t, cfg.Export.WritePDF)
	require.Len(t, cfg.Export.Transforms, 1)
	assert.Equal(t, "uppercase", cfg.Export.Transforms[0].Actions[0].Type)

	rules, err := cfg.ColumnRules()
	require.NoError(t, err)
	assert.Equal(t, []columns.Rule{{Keyword: "sku", Kind: columns.Item}, {Keyword: "cost", Kind: columns.Rate}}, rules)
}

func TestInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"log level": "log_level: loud\n",
		"column":    "columns:\n  rules:\n    - keyword: sku\n      kind: widget\n",
		"transform": "export:\n  transforms:\n    - actions: [{type: trim}]\n",
		"bad yaml":  "input_dir: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadMainConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	t.Setenv("PO_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("PO_EDITOR_ALLOW_ROW_REORDER", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := DefaultMainConfig()
	require.NoError(t, ApplyOverrides(cfg, NewViper()))
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.True(t, cfg.Editor.AllowRowReorder)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultMainConfig()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.InputArchiveDir = filepath.Join(root, "in_archive")
	cfg.OutputArchiveDir = filepath.Join(root, "out_archive")
	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir} {
		assert.DirExists(t, dir)
	}
}

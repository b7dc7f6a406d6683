package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
week_start: sunday
grid:
  cell_height: 90
ics:
  - url: https://example.com/a.ics
  - url: https://example.com/b.ics
    id: team
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Sunday, cfg.Weekday())
	assert.Equal(t, defaultRefreshCron, cfg.RefreshCron)
	assert.Equal(t, 90.0, cfg.Grid.CellHeight)
	assert.Equal(t, DefaultGrid().RowHeight, cfg.Grid.RowHeight)

	sources := cfg.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "ics-1", sources[0].ID)
	assert.Equal(t, "ics-1", sources[0].Name)
	assert.Equal(t, "team", sources[1].ID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"weekday":   "week_start: someday\n",
		"cron":      "refresh: every now and then\n",
		"log level": "log_level: loud\n",
		"ics url":   "ics:\n  - id: a\n",
		"ics dup":   "ics:\n  - {id: a, url: x}\n  - {id: a, url: y}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = ":9000"
	cfg.ICS = append(cfg.ICS, ICSConfig{ID: "home", URL: "https://example.com/home.ics", Color: "green"})
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestSave_Errors(t *testing.T) {
	assert.ErrorIs(t, Save("", DefaultConfig()), ErrEmptyPath)
	assert.ErrorIs(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil), ErrNilConfig)

	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

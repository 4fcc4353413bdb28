package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dupreview.toml")
	content := `
database_path = "/var/lib/dupreview/assets.db"
log_level = "debug"
starting_dirs = ["` + filepath.ToSlash(dir) + `"]
include_ext = [".JPG", "png"]
max_hash_distance = 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/dupreview/assets.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxHashDistance)
	// untouched fields keep their defaults
	assert.Equal(t, "app.log", cfg.LogFilePath)
	assert.True(t, cfg.SkipSymbolicLinks)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"jpg", "png"}, cfg.IncludeExt)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("no_such_option = true\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.TrashDir = "/tmp/trash"
	cfg.ExemptFolders = []string{"/srv/keep"}

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name   string
		modify func(*Config)
		is     error
	}{
		{name: "ok", modify: func(c *Config) {}},
		{name: "no dirs", modify: func(c *Config) { c.StartingDirs = nil }, is: ErrNoStartingDirs},
		{name: "bad level", modify: func(c *Config) { c.LogLevel = "loud" }, is: ErrBadLogLevel},
		{name: "missing dir", modify: func(c *Config) { c.StartingDirs = []string{filepath.Join(dir, "gone")} }, is: os.ErrNotExist},
		{name: "not a dir", modify: func(c *Config) { c.StartingDirs = []string{file} }},
		{name: "negative cutoff", modify: func(c *Config) { c.FilesizeCutoff = -1 }},
		{name: "distance", modify: func(c *Config) { c.MaxHashDistance = 65 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.StartingDirs = []string{dir}
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.name == "ok" {
				require.NoError(t, err)
				assert.True(t, filepath.IsAbs(cfg.StartingDirs[0]))
				return
			}
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestValidateSymlinkOptions(t *testing.T) {
	cfg := Default()
	cfg.StartingDirs = []string{t.TempDir()}
	cfg.FollowSymbolicLinks = true
	cfg.SkipSymbolicLinks = true

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.FollowSymbolicLinks)
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := SetupLogger(path, "warn")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("k", "v"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)

	_, err = SetupLogger(path, "chatty")
	assert.ErrorIs(t, err, ErrBadLogLevel)
}

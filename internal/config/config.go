package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is read from a TOML file over SetDefaults.
type Config struct {
	DatabasePath        string   `toml:"database_path"`
	LogFilePath         string   `toml:"log_file_path"`
	LogLevel            string   `toml:"log_level"`
	StartingDirs        []string `toml:"starting_dirs"`
	IgnoreStr           []string `toml:"ignore_str"`
	IncludeStr          []string `toml:"include_str"`
	IgnoreExt           []string `toml:"ignore_ext"`
	IncludeExt          []string `toml:"include_ext"`
	FilesizeCutoff      int64    `toml:"filesize_cutoff"` // in bytes, 0 disables
	FollowSymbolicLinks bool     `toml:"follow_symbolic_links"`
	SkipSymbolicLinks   bool     `toml:"skip_symbolic_links"`
	SilentFFmpeg        bool     `toml:"silent_ffmpeg"`
	TrashDir            string   `toml:"trash_dir"` // empty removes files outright
	MaxHashDistance     int      `toml:"max_hash_distance"`
	MaxDurationDiff     int      `toml:"max_duration_diff"` // seconds
	ExemptFolders       []string `toml:"exempt_folders"`
}

var (
	ErrNoStartingDirs = errors.New("no starting directories configured")
	ErrBadLogLevel    = errors.New("unknown log level")
)

func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

func (c *Config) SetDefaults() {
	c.StartingDirs = []string{"."}
	c.DatabasePath = "./assets.db"
	c.LogFilePath = "app.log"
	c.LogLevel = "info"
	c.IgnoreStr = []string{}
	c.IncludeStr = []string{}
	c.IgnoreExt = []string{}
	c.IncludeExt = []string{
		"mp4", "m4v", "webm", "mkv", "mov", "avi", "wmv", "flv",
		"jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff",
	}
	c.FollowSymbolicLinks = false
	c.SkipSymbolicLinks = true
	c.SilentFFmpeg = true
	c.FilesizeCutoff = 0
	c.TrashDir = ""
	c.MaxHashDistance = 4
	c.MaxDurationDiff = 2
	c.ExemptFolders = []string{}
}

// Load decodes the TOML file at path over the defaults. A missing file is not
// an error; the defaults are returned as they are.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("No config file, using defaults", slog.String("path", path))
		return &cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// Save writes c as TOML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks option values and normalises directories and extensions.
func (c *Config) Validate() error {
	if len(c.StartingDirs) == 0 {
		return ErrNoStartingDirs
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FilesizeCutoff < 0 {
		return fmt.Errorf("filesize_cutoff must not be negative, got %d", c.FilesizeCutoff)
	}
	if c.MaxHashDistance < 0 || c.MaxHashDistance > 64 {
		return fmt.Errorf("max_hash_distance must be within 0..64, got %d", c.MaxHashDistance)
	}
	if c.SkipSymbolicLinks && c.FollowSymbolicLinks {
		slog.Warn("skip_symbolic_links overrides follow_symbolic_links")
		c.FollowSymbolicLinks = false
	}

	c.IncludeExt = normaliseExts(c.IncludeExt)
	c.IgnoreExt = normaliseExts(c.IgnoreExt)

	for i, dir := range c.ExemptFolders {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("exempt folder %q: %w", dir, err)
		}
		c.ExemptFolders[i] = abs
	}
	return ValidateStartingDirs(c)
}

// ValidateStartingDirs ensures starting directories exist and are actually
// dirs, and rewrites them as absolute paths.
func ValidateStartingDirs(c *Config) error {
	for i, dir := range c.StartingDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("absolute path for %q: %w", dir, err)
		}

		fsInfo, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("starting dir %q does not exist: %w", dir, err)
		} else if err != nil {
			return fmt.Errorf("stat starting dir %q: %w", dir, err)
		}
		if !fsInfo.IsDir() {
			return fmt.Errorf("starting dir %q is not a directory", dir)
		}
		c.StartingDirs[i] = abs
	}
	return nil
}

func normaliseExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"dupreview/internal/config"
	store "dupreview/internal/db"
	"dupreview/internal/db/dbstore"
	"dupreview/internal/db/sqlite"
	"dupreview/internal/duplicate"
	"dupreview/internal/filesystem"
	"dupreview/internal/models"
	"dupreview/internal/videoprocessor"
)

// ErrCatalogLocked is returned by Setup when another process holds the
// catalog.
var ErrCatalogLocked = errors.New("catalog is in use by another process")

type App struct {
	Config         *config.Config
	AssetStore     store.AssetStore
	VideoProcessor *videoprocessor.FFmpegWrapper

	db   *sql.DB
	lock *flock.Flock
}

func NewApplication(c *config.Config, as store.AssetStore, vp *videoprocessor.FFmpegWrapper) *App {
	return &App{Config: c, AssetStore: as, VideoProcessor: vp}
}

// Setup loads the config at configPath, installs the logger, takes the
// catalog lock and opens the database. The caller must Close the App.
func Setup(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := config.SetupLogger(cfg.LogFilePath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	slog.Info("Starting...", slog.String("config", configPath), slog.String("database", cfg.DatabasePath))

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	lock := flock.New(cfg.DatabasePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock catalog: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", cfg.DatabasePath, ErrCatalogLocked)
	}

	db, err := sqlite.InitDB(cfg.DatabasePath)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	app := NewApplication(cfg, dbstore.NewAssetStore(db), videoprocessor.NewFFmpegInstance(cfg.SilentFFmpeg))
	app.db = db
	app.lock = lock
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
	}
	return errors.Join(errs...)
}

func (a *App) duplicateOptions() duplicate.DuplicateOptions {
	return duplicate.DuplicateOptions{
		MaxHashDistance: a.Config.MaxHashDistance,
		MaxDurationDiff: time.Duration(a.Config.MaxDurationDiff) * time.Second,
	}
}

// DuplicateGroups returns the groups stored by the last scan.
func (a *App) DuplicateGroups(ctx context.Context) ([][]models.Asset, error) {
	groups, err := a.AssetStore.GetDuplicateGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load duplicate groups: %w", err)
	}
	return groups, nil
}

// NewDeleter returns the background deleter for a review session. Files it
// deletes are also dropped from the catalog. onDelete, when set, is called
// after every attempt.
func (a *App) NewDeleter(onDelete func(models.Asset, error)) (*filesystem.Trash, error) {
	return filesystem.NewTrash(a.Config.TrashDir, func(asset models.Asset, err error) {
		if err == nil && asset.ID != 0 {
			if derr := a.AssetStore.DeleteAssetByID(context.Background(), asset.ID); derr != nil && !errors.Is(derr, store.ErrNotFound) {
				slog.Error("Failed to forget deleted asset", slog.String("path", asset.Path), slog.Any("error", derr))
			}
		}
		if onDelete != nil {
			onDelete(asset, err)
		}
	})
}

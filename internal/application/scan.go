package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"dupreview/internal/duplicate"
	"dupreview/internal/filesystem"
	phash "dupreview/internal/hash"
	"dupreview/internal/models"
	"dupreview/internal/videoprocessor/ffprobe"
)

const hashWorkerCount = 4

// perceptual hashes of a solid colour frame; they match everything
var solidColourHashes = map[string]struct{}{
	"8000000000000000": {},
	"0000000000000000": {},
}

// Progress receives scan progress. Either callback may be nil.
type Progress struct {
	OnFileFound func(visited, accepted int)
	OnHashed    func(done, total int)
}

// Scan searches the configured directories, fingerprints new or changed
// files, stores them, and recomputes the duplicate buckets over the whole
// catalog. It returns the resulting duplicate groups.
func (a *App) Scan(ctx context.Context, progress Progress) ([][]models.Asset, error) {
	exempt, err := a.AssetStore.GetExemptPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exempt paths: %w", err)
	}

	found := filesystem.SearchDirs(a.Config, exempt, progress.OnFileFound)

	dbAssets, err := a.AssetStore.GetAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.forgetMissing(ctx, dbAssets)

	toHash := reconcileAssetsWithDB(found.Assets, dbAssets)
	slog.Info("Files needing fingerprints", slog.Int("count", len(toHash)), slog.Int("found", len(found.Assets)))

	hashed := a.computeFingerprints(ctx, toHash, progress.OnHashed)
	for _, asset := range hashed {
		if err := a.AssetStore.CreateAsset(ctx, asset); err != nil {
			slog.Error("Failed to store asset", slog.String("path", asset.Path), slog.Any("error", err))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := a.AssetStore.GetAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	duplicate.AssignBuckets(all, a.duplicateOptions())
	if err := a.AssetStore.BulkUpdateBuckets(ctx, all); err != nil {
		return nil, fmt.Errorf("store buckets: %w", err)
	}

	groups, err := a.DuplicateGroups(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("Number of duplicate groups", slog.Int("count", len(groups)))
	return groups, nil
}

// reconcileAssetsWithDB returns the found assets that are not already stored
// unchanged (same path, size, device, inode and modification time).
func reconcileAssetsWithDB(found []models.Asset, dbAssets []*models.Asset) []*models.Asset {
	byPath := make(map[string]*models.Asset, len(dbAssets))
	for _, a := range dbAssets {
		byPath[a.Path] = a
	}

	results := make([]*models.Asset, 0, len(found))
	for i := range found {
		fsAsset := &found[i]
		if match, ok := byPath[fsAsset.Path]; ok {
			unchanged := match.Size == fsAsset.Size &&
				match.DeviceInode() == fsAsset.DeviceInode() &&
				match.ModifiedAt.Equal(fsAsset.ModifiedAt)
			if unchanged {
				slog.Debug("Skipping file already in catalog", slog.String("path", fsAsset.Path))
				continue
			}
		}
		results = append(results, fsAsset)
	}
	return results
}

// forgetMissing drops catalog rows whose file no longer exists.
func (a *App) forgetMissing(ctx context.Context, dbAssets []*models.Asset) {
	for _, asset := range dbAssets {
		if _, err := os.Lstat(asset.Path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		slog.Info("Forgetting missing file", slog.String("path", asset.Path))
		if err := a.AssetStore.DeleteAssetByID(ctx, asset.ID); err != nil {
			slog.Warn("Failed to forget missing file", slog.String("path", asset.Path), slog.Any("error", err))
		}
	}
}

// computeFingerprints fills Fingerprint and PerceptualHash using a small
// worker pool. Files that cannot be read are dropped. Exact copies share one
// perceptual hash.
func (a *App) computeFingerprints(ctx context.Context, assets []*models.Asset, onHashed func(int, int)) []*models.Asset {
	var wg sync.WaitGroup
	assetChan := make(chan *models.Asset)
	validChan := make(chan *models.Asset, len(assets))

	for i := 0; i < hashWorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for asset := range assetChan {
				digest, err := phash.ContentDigest(asset.Path, asset.Size)
				if err != nil {
					slog.Error("XXHash failure", slog.String("path", asset.Path), slog.Any("error", err))
					continue
				}
				asset.Fingerprint = digest
				validChan <- asset
			}
		}()
	}

	go func() {
		defer close(assetChan)
		for _, asset := range assets {
			select {
			case assetChan <- asset:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()
	close(validChan)

	var valid []*models.Asset
	for asset := range validChan {
		valid = append(valid, asset)
	}

	known := make(map[string]string)
	for i, asset := range valid {
		if ctx.Err() != nil {
			break
		}
		if onHashed != nil {
			onHashed(i, len(valid))
		}
		key := strconv.FormatInt(asset.Size, 10) + ":" + asset.Fingerprint
		if h, ok := known[key]; ok {
			asset.PerceptualHash = h
			continue
		}
		if err := a.perceptualHash(ctx, asset); err != nil {
			slog.Warn("Skipping perceptual hash", slog.String("path", asset.Path), slog.Any("error", err))
		}
		known[key] = asset.PerceptualHash
	}
	if onHashed != nil {
		onHashed(len(valid), len(valid))
	}
	return valid
}

func (a *App) perceptualHash(ctx context.Context, asset *models.Asset) error {
	var h string
	if asset.IsVideo {
		if a.VideoProcessor == nil {
			return errors.New("no video processor configured")
		}
		if err := ffprobe.GetVideoInfo(ctx, asset); err != nil {
			return err
		}
		vh, err := phash.VideoFingerprint(a.VideoProcessor, asset)
		if err != nil {
			return err
		}
		h = vh
	} else {
		ih, width, height, err := phash.ImageFingerprint(asset.Path)
		if err != nil {
			return err
		}
		h, asset.Width, asset.Height = ih, width, height
	}

	if _, solid := solidColourHashes[h]; solid {
		return fmt.Errorf("solid colour perceptual hash %s", h)
	}
	asset.PerceptualHash = h
	return nil
}

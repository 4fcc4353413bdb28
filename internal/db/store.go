package store

import (
	"context"
	"errors"

	"dupreview/internal/models"
)

var ErrNotFound = errors.New("not found")

// AssetStore is the catalog of scanned files, their fingerprints and the
// duplicate buckets they were placed in.
type AssetStore interface {
	// CreateAsset inserts the asset, or updates the row with the same path,
	// and sets asset.ID.
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetAssetByPath(ctx context.Context, path string) (*models.Asset, error)
	GetAssetsByIDs(ctx context.Context, ids []int64) ([]*models.Asset, error)
	GetAllAssets(ctx context.Context) ([]*models.Asset, error)
	BulkUpdateBuckets(ctx context.Context, assets []*models.Asset) error
	// GetDuplicateGroups returns every bucket with at least two members,
	// ordered by bucket and then by id.
	GetDuplicateGroups(ctx context.Context) ([][]models.Asset, error)
	DeleteAssetByID(ctx context.Context, id int64) error

	AddExemptPath(ctx context.Context, path string) error
	GetExemptPaths(ctx context.Context) ([]string, error)
}

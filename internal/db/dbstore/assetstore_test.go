package dbstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "dupreview/internal/db"
	"dupreview/internal/db/sqlite"
	"dupreview/internal/models"
)

func newStore(t *testing.T) store.AssetStore {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAssetStore(db)
}

func sample(path string, bucket int) *models.Asset {
	a := models.NewAsset(path)
	a.Fingerprint = "123"
	a.PerceptualHash = "ffffffffffffffff"
	a.Width, a.Height = 640, 480
	a.Duration = 90 * time.Second
	a.Size = 2048
	a.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)
	a.ModifiedAt = time.Date(2024, 5, 2, 10, 0, 0, 0, time.FixedZone("x", 3600))
	a.Inode, a.Device, a.NumHardLinks = 99, 3, 1
	a.IsVideo = true
	a.Bucket = bucket
	return &a
}

func TestCreateAndGetAsset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := sample("/media/a.mp4", models.NoBucket)
	require.NoError(t, s.CreateAsset(ctx, a))
	require.NotZero(t, a.ID)

	got, err := s.GetAssetByPath(ctx, "/media/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, a.Identity(), got.Identity())
	assert.Equal(t, a.Duration, got.Duration)
	assert.Equal(t, a.PerceptualHash, got.PerceptualHash)
	assert.True(t, got.IsVideo)
	assert.Equal(t, uint64(99), got.Inode)
	assert.Equal(t, models.NoBucket, got.Bucket)

	_, err = s.GetAssetByPath(ctx, "/media/none.mp4")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateAssetUpsertsByPath(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := sample("/media/a.mp4", models.NoBucket)
	require.NoError(t, s.CreateAsset(ctx, a))
	first := a.ID

	b := sample("/media/a.mp4", models.NoBucket)
	b.Size = 4096
	require.NoError(t, s.CreateAsset(ctx, b))
	assert.Equal(t, first, b.ID)

	all, err := s.GetAllAssets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(4096), all[0].Size)
}

func TestDuplicateGroups(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	paths := []string{"/m/1.jpg", "/m/2.jpg", "/m/3.jpg", "/m/4.jpg", "/m/5.jpg"}
	var assets []*models.Asset
	for _, p := range paths {
		a := sample(p, models.NoBucket)
		require.NoError(t, s.CreateAsset(ctx, a))
		assets = append(assets, a)
	}

	groups, err := s.GetDuplicateGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	assets[0].Bucket = 1
	assets[3].Bucket = 1
	assets[1].Bucket = 0
	assets[4].Bucket = 0
	assets[2].Bucket = 2 // alone
	require.NoError(t, s.BulkUpdateBuckets(ctx, append(assets, nil)))

	groups, err = s.GetDuplicateGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"/m/2.jpg", "/m/5.jpg"}, []string{groups[0][0].Path, groups[0][1].Path})
	assert.Equal(t, []string{"/m/1.jpg", "/m/4.jpg"}, []string{groups[1][0].Path, groups[1][1].Path})

	byID, err := s.GetAssetsByIDs(ctx, []int64{assets[4].ID, assets[0].ID})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "/m/1.jpg", byID[0].Path)
}

func TestDeleteAsset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := sample("/media/a.mp4", models.NoBucket)
	require.NoError(t, s.CreateAsset(ctx, a))
	require.NoError(t, s.DeleteAssetByID(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAssetByID(ctx, a.ID), store.ErrNotFound)

	all, err := s.GetAllAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExemptPaths(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AddExemptPath(ctx, "/srv/b"))
	require.NoError(t, s.AddExemptPath(ctx, "/srv/a"))
	require.NoError(t, s.AddExemptPath(ctx, "/srv/a"))

	paths, err := s.GetExemptPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/a", "/srv/b"}, paths)
}

func TestBuildInsertQueryAndValues(t *testing.T) {
	cols, placeholders, vals, err := buildInsertQueryAndValues(sample("/m/x.jpg", 4))
	require.NoError(t, err)
	assert.NotContains(t, cols, "id")
	assert.Len(t, placeholders, len(cols))
	assert.Len(t, vals, len(cols))

	_, _, _, err = buildInsertQueryAndValues(42)
	assert.Error(t, err)
}

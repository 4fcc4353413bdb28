package filesystem

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupreview/internal/config"
	"dupreview/internal/models"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	os.Exit(m.Run())
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func names(assets []models.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.FileName
	}
	sort.Strings(out)
	return out
}

func testConfig(dirs ...string) *config.Config {
	cfg := config.Default()
	cfg.StartingDirs = dirs
	cfg.IncludeExt = []string{"jpg", "mp4"}
	return &cfg
}

func TestSearchDirsFilters(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), 10)
	touch(t, filepath.Join(root, "B.JPG"), 10)
	touch(t, filepath.Join(root, "notes.txt"), 10)
	touch(t, filepath.Join(root, "empty.jpg"), 0)
	touch(t, filepath.Join(root, "sub", "clip.mp4"), 10)
	touch(t, filepath.Join(root, "sub", "thumb_clip.jpg"), 10)

	cfg := testConfig(root)
	cfg.IgnoreStr = []string{"thumb"}

	var calls int
	res := SearchDirs(cfg, nil, func(visited, accepted int) { calls++ })

	assert.Equal(t, []string{"B.JPG", "a.jpg", "clip.mp4"}, names(res.Assets))
	assert.Equal(t, 6, res.Visited)
	assert.Equal(t, 3, res.Accepted)
	assert.Positive(t, calls)

	for _, a := range res.Assets {
		assert.True(t, filepath.IsAbs(a.Path))
		assert.Equal(t, models.NoBucket, a.Bucket)
		assert.Equal(t, a.FileName == "clip.mp4", a.IsVideo, a.FileName)
		assert.NotZero(t, a.Inode)
	}
}

func TestSearchDirsCutoffAndInclude(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "small_holiday.jpg"), 5)
	touch(t, filepath.Join(root, "big_holiday.jpg"), 50)
	touch(t, filepath.Join(root, "big_work.jpg"), 50)

	cfg := testConfig(root)
	cfg.FilesizeCutoff = 10
	cfg.IncludeStr = []string{"HOLIDAY"}

	res := SearchDirs(cfg, nil, nil)
	assert.Equal(t, []string{"big_holiday.jpg"}, names(res.Assets))
}

func TestSearchDirsSkipsExemptFolders(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "keep", "a.jpg"), 10)
	touch(t, filepath.Join(root, "keeper", "b.jpg"), 10)
	touch(t, filepath.Join(root, "c.jpg"), 10)

	cfg := testConfig(root)
	cfg.ExemptFolders = []string{filepath.Join(root, "keeper")}

	res := SearchDirs(cfg, []string{filepath.Join(root, "keep")}, nil)
	assert.Equal(t, []string{"c.jpg"}, names(res.Assets))
}

func TestSearchDirsSkipsHardLinks(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), 10)
	if err := os.Link(filepath.Join(root, "a.jpg"), filepath.Join(root, "b.jpg")); err != nil {
		t.Skipf("hard links not supported: %v", err)
	}

	res := SearchDirs(testConfig(root), nil, nil)
	require.Len(t, res.Assets, 1)
	assert.Equal(t, uint64(2), res.Assets[0].NumHardLinks)
}

func TestSearchDirsSymbolicLinks(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"), 10)
	if err := os.Symlink(filepath.Join(root, "a.jpg"), filepath.Join(root, "link.jpg")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	cfg := testConfig(root)
	res := SearchDirs(cfg, nil, nil)
	assert.Equal(t, []string{"a.jpg"}, names(res.Assets))

	cfg.SkipSymbolicLinks = false
	cfg.FollowSymbolicLinks = true
	res = SearchDirs(cfg, nil, nil)
	require.Equal(t, []string{"a.jpg", "link.jpg"}, names(res.Assets))
	for _, a := range res.Assets {
		if a.FileName == "link.jpg" {
			assert.True(t, a.IsSymbolicLink)
			want, err := filepath.EvalSymlinks(filepath.Join(root, "a.jpg"))
			require.NoError(t, err)
			assert.Equal(t, want, a.SymbolicLink)
		}
	}
}

func TestIsExempt(t *testing.T) {
	exempt := []string{filepath.FromSlash("/srv/keep")}
	assert.True(t, IsExempt(filepath.FromSlash("/srv/keep"), exempt))
	assert.True(t, IsExempt(filepath.FromSlash("/srv/keep/a/b.jpg"), exempt))
	assert.False(t, IsExempt(filepath.FromSlash("/srv/keeper/b.jpg"), exempt))
	assert.False(t, IsExempt(filepath.FromSlash("/srv/other"), nil))
}

func TestTrashMovesFiles(t *testing.T) {
	root := t.TempDir()
	trashDir := filepath.Join(root, "trash")
	src := filepath.Join(root, "photos", "a.jpg")
	touch(t, src, 10)

	var mu sync.Mutex
	var results []error
	trash, err := NewTrash(trashDir, func(_ models.Asset, err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})
	require.NoError(t, err)

	a := models.NewAsset(src)
	a.ID = 7
	trash.RequestDeletion(a)
	trash.RequestDeletion(models.NewAsset(filepath.Join(root, "missing.jpg")))
	require.NoError(t, trash.Close())
	require.NoError(t, trash.Close(), "close is idempotent")

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(trashDir, "7_a.jpg"))
	assert.NoError(t, err)

	require.Len(t, results, 2)
	assert.NoError(t, results[0])
	assert.Error(t, results[1])
}

func TestTrashRemovesWithoutDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.jpg")
	touch(t, src, 10)

	trash, err := NewTrash("", nil)
	require.NoError(t, err)
	trash.RequestDeletion(models.NewAsset(src))
	require.NoError(t, trash.Close())

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestTrashKeepsSameNamesApart(t *testing.T) {
	root := t.TempDir()
	trashDir := filepath.Join(root, "trash")
	first := filepath.Join(root, "one", "a.jpg")
	second := filepath.Join(root, "two", "a.jpg")
	touch(t, first, 10)
	touch(t, second, 20)

	trash, err := NewTrash(trashDir, nil)
	require.NoError(t, err)
	trash.RequestDeletion(models.NewAsset(first))
	trash.RequestDeletion(models.NewAsset(second))
	require.NoError(t, trash.Close())

	entries, err := os.ReadDir(trashDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var sizes []int64
	for _, e := range entries {
		info, err := e.Info()
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(e.Name(), "_a.jpg"), e.Name())
		sizes = append(sizes, info.Size())
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	assert.Equal(t, []int64{10, 20}, sizes)
}

func TestTrashDestinationAvoidsExistingFile(t *testing.T) {
	trashDir := t.TempDir()
	touch(t, filepath.Join(trashDir, "7_a.jpg"), 1)

	trash := &Trash{dir: trashDir}
	a := models.NewAsset("/media/a.jpg")
	a.ID = 7
	dst := trash.destination(a)
	assert.NotEqual(t, filepath.Join(trashDir, "7_a.jpg"), dst)
	assert.True(t, strings.HasPrefix(filepath.Base(dst), "7_"))
	assert.True(t, strings.HasSuffix(dst, "_a.jpg"))
}

func TestTrashQueueDoesNotBlock(t *testing.T) {
	root := t.TempDir()
	release := make(chan struct{})
	var mu sync.Mutex
	var results []error
	trash, err := NewTrash("", func(_ models.Asset, err error) {
		<-release
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})
	require.NoError(t, err)

	// The worker is stuck on the first request; every further request must
	// still return immediately.
	const n = 200
	for i := 0; i < n; i++ {
		trash.RequestDeletion(models.NewAsset(filepath.Join(root, "missing", strconv.Itoa(i)+".jpg")))
	}
	close(release)
	require.NoError(t, trash.Close())

	mu.Lock()
	assert.Len(t, results, n)
	mu.Unlock()
}

func TestTrashRequestAfterClose(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.jpg")
	touch(t, src, 10)

	var got error
	trash, err := NewTrash("", func(_ models.Asset, err error) { got = err })
	require.NoError(t, err)
	require.NoError(t, trash.Close())

	assert.NotPanics(t, func() { trash.RequestDeletion(models.NewAsset(src)) })
	assert.ErrorIs(t, got, ErrTrashClosed)
	_, err = os.Stat(src)
	assert.NoError(t, err, "file is left alone")
}

func TestStatLinks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.jpg")
	touch(t, src, 10)

	l, err := statLinks(src, false)
	require.NoError(t, err)
	assert.False(t, l.Symlink)
	assert.Equal(t, uint64(1), l.Count)
	assert.NotZero(t, l.Inode)

	link := filepath.Join(root, "link.jpg")
	if err := os.Symlink(src, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	l, err = statLinks(link, false)
	require.NoError(t, err)
	assert.True(t, l.Symlink)
	assert.Empty(t, l.Target)

	_, err = statLinks(filepath.Join(root, "missing.jpg"), false)
	assert.Error(t, err)
}

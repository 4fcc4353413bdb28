package duplicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phash "dupreview/internal/hash"
	"dupreview/internal/models"
)

func ids(groups [][]models.Asset) [][]int64 {
	out := make([][]int64, len(groups))
	for i, g := range groups {
		for _, a := range g {
			out[i] = append(out[i], a.ID)
		}
	}
	return out
}

func TestGroupAssetsExactContent(t *testing.T) {
	in := []models.Asset{
		{ID: 3, Path: "/a/3.jpg", Fingerprint: "111", Bucket: 7},
		{ID: 1, Path: "/a/1.jpg", Fingerprint: "111"},
		{ID: 2, Path: "/a/2.jpg", Fingerprint: "222"},
		{ID: 4, Path: "/a/4.jpg", Fingerprint: "222"},
		{ID: 5, Path: "/a/5.jpg", Fingerprint: "333"},
	}

	groups := GroupAssets(in, DefaultOptions())

	assert.Equal(t, [][]int64{{1, 3}, {2, 4}}, ids(groups))
	// the input is left alone
	assert.Equal(t, 7, in[0].Bucket)
}

func TestGroupAssetsPerceptual(t *testing.T) {
	base := uint64(0xF0F0F0F0F0F0F0F0)
	in := []models.Asset{
		{ID: 1, PerceptualHash: phash.FormatHash(base)},
		{ID: 2, PerceptualHash: phash.FormatHash(base ^ 0b11)},         // distance 2 from 1
		{ID: 3, PerceptualHash: phash.FormatHash(base ^ 0b11 ^ 0b1100)}, // distance 2 from 2, 4 from 1
		{ID: 4, PerceptualHash: phash.FormatHash(^base)},
		{ID: 5, PerceptualHash: phash.FormatHash(^base ^ 1)},
	}

	groups := GroupAssets(in, DuplicateOptions{MaxHashDistance: 2})
	assert.Equal(t, [][]int64{{1, 2, 3}, {4, 5}}, ids(groups), "similarity is transitive")
}

func TestVideosNeedCloseDurations(t *testing.T) {
	h := phash.FormatHash(42)
	in := []models.Asset{
		{ID: 1, IsVideo: true, PerceptualHash: h, Duration: 60 * time.Second},
		{ID: 2, IsVideo: true, PerceptualHash: h, Duration: 61 * time.Second},
		{ID: 3, IsVideo: true, PerceptualHash: h, Duration: 120 * time.Second},
		{ID: 4, IsVideo: false, PerceptualHash: h},
	}

	groups := GroupAssets(in, DuplicateOptions{MaxHashDistance: 0, MaxDurationDiff: 2 * time.Second})
	assert.Equal(t, [][]int64{{1, 2}}, ids(groups))
}

func TestBadHashIsSkipped(t *testing.T) {
	in := []*models.Asset{
		{ID: 1, PerceptualHash: "not-hex"},
		{ID: 2, PerceptualHash: phash.FormatHash(7)},
	}
	AssignBuckets(in, DefaultOptions())
	require.NotEqual(t, in[0].Bucket, in[1].Bucket)
	assert.NotEqual(t, models.NoBucket, in[0].Bucket)
}

func TestGroupsOrdering(t *testing.T) {
	in := []models.Asset{
		{ID: 9, Bucket: 2},
		{ID: 1, Bucket: 2},
		{ID: 5, Bucket: 0},
		{ID: 4, Bucket: 0},
		{ID: 7, Bucket: 1},
		{ID: 8, Bucket: models.NoBucket},
		{ID: 6, Bucket: models.NoBucket},
	}
	assert.Equal(t, [][]int64{{4, 5}, {1, 9}}, ids(Groups(in)))
	assert.Empty(t, Groups(nil))
}

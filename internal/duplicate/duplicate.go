package duplicate

import (
	"log/slog"
	"sort"
	"time"

	phash "dupreview/internal/hash"
	"dupreview/internal/models"
)

type DuplicateOptions struct {
	MaxDurationDiff time.Duration
	MaxHashDistance int
}

func DefaultOptions() DuplicateOptions {
	return DuplicateOptions{MaxDurationDiff: 2 * time.Second, MaxHashDistance: 4}
}

// AssignBuckets puts every asset into a bucket shared with all of the assets
// it is transitively similar to. Assets with no similar neighbour keep a
// bucket of their own.
func AssignBuckets(assets []*models.Asset, options DuplicateOptions) {
	slog.Info("Assigning buckets", slog.Int("assets", len(assets)))
	for _, a := range assets {
		a.Bucket = models.NoBucket
	}

	neighbours := make([][]int, len(assets))
	for i := range assets {
		neighbours[i] = findNeighbours(i, assets, options)
	}

	next := 0
	for i, a := range assets {
		if a.Bucket != models.NoBucket {
			continue
		}
		a.Bucket = next
		propagateBucket(next, i, neighbours, assets)
		next++
	}
	logBuckets(assets)
}

// Groups collects assets by bucket. Buckets with a single member are dropped;
// the rest are ordered by bucket and their members by ID.
func Groups(assets []models.Asset) [][]models.Asset {
	byBucket := make(map[int][]models.Asset)
	for _, a := range assets {
		if a.Bucket == models.NoBucket {
			continue
		}
		byBucket[a.Bucket] = append(byBucket[a.Bucket], a)
	}

	buckets := make([]int, 0, len(byBucket))
	for b, members := range byBucket {
		if len(members) > 1 {
			buckets = append(buckets, b)
		}
	}
	sort.Ints(buckets)

	groups := make([][]models.Asset, 0, len(buckets))
	for _, b := range buckets {
		members := byBucket[b]
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		groups = append(groups, members)
	}
	return groups
}

// GroupAssets buckets a copy of assets and returns the duplicate groups.
func GroupAssets(assets []models.Asset, options DuplicateOptions) [][]models.Asset {
	ptrs := make([]*models.Asset, len(assets))
	copied := make([]models.Asset, len(assets))
	copy(copied, assets)
	for i := range copied {
		ptrs[i] = &copied[i]
	}
	AssignBuckets(ptrs, options)
	return Groups(copied)
}

func logBuckets(assets []*models.Asset) {
	bucketMap := make(map[int][]int64)
	for _, a := range assets {
		bucketMap[a.Bucket] = append(bucketMap[a.Bucket], a.ID)
	}
	for bucket, ids := range bucketMap {
		if len(ids) > 1 {
			slog.Info("Bucket found", slog.Int("bucket", bucket), slog.Any("asset_ids", ids))
		}
	}
}

func propagateBucket(bucket, start int, neighbours [][]int, assets []*models.Asset) {
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range neighbours[i] {
			if assets[n].Bucket == models.NoBucket {
				assets[n].Bucket = bucket
				stack = append(stack, n)
			}
		}
	}
}

func findNeighbours(index int, assets []*models.Asset, options DuplicateOptions) []int {
	var neighbours []int
	current := assets[index]

	for i, other := range assets {
		if i == index || (current.ID != 0 && current.ID == other.ID) {
			continue
		}
		if similar(current, other, options) {
			neighbours = append(neighbours, i)
		}
	}
	return neighbours
}

// similar reports whether a and b are duplicates: identical content, or
// perceptual hashes within range for assets of the same kind.
func similar(a, b *models.Asset, options DuplicateOptions) bool {
	if a.Fingerprint != "" && a.Fingerprint == b.Fingerprint {
		return true
	}
	if a.PerceptualHash == "" || b.PerceptualHash == "" || a.IsVideo != b.IsVideo {
		return false
	}
	if a.IsVideo {
		diff := a.Duration - b.Duration
		if diff < 0 {
			diff = -diff
		}
		if diff > options.MaxDurationDiff {
			slog.Debug("Skipping pair due to duration difference",
				slog.String("a", a.Path), slog.String("b", b.Path), slog.Duration("difference", diff))
			return false
		}
	}

	distance, err := phash.Distance(a.PerceptualHash, b.PerceptualHash)
	if err != nil {
		slog.Warn("Unable to compare perceptual hashes",
			slog.String("a", a.Path), slog.String("b", b.Path), slog.Any("error", err))
		return false
	}
	return distance <= options.MaxHashDistance
}

package phash

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"dupreview/internal/models"
)

// 16 screenshots from the video are stitched together into one 4x4 collage
// and the collage gets a single perceptual hash.
const (
	numImages = 16
	gridSize  = 4
	scWidth   = 320
	scHeight  = 180
)

// Screenshotter writes one BMP frame of the video at timeStamp to w.
type Screenshotter interface {
	ScreenshotAtTime(filePath string, w io.Writer, timeStamp string, width, height int) error
}

// FormatHash renders a 64 bit perceptual hash as fixed width hex.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func parseHash(s string) (*goimagehash.ImageHash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("parse perceptual hash %q: %w", s, err)
	}
	return goimagehash.NewImageHash(v, goimagehash.PHash), nil
}

// Distance is the Hamming distance between two hashes made by FormatHash.
func Distance(a, b string) (int, error) {
	ha, err := parseHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := parseHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}

// ImageFingerprint decodes the image at path and returns its perceptual hash.
// Width and height of the decoded image are returned as well.
func ImageFingerprint(path string) (string, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return "", 0, 0, fmt.Errorf("decode %q: %w", path, err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", 0, 0, fmt.Errorf("phash %q: %w", path, err)
	}
	b := img.Bounds()
	slog.Debug("Image hashed",
		slog.String("path", path),
		slog.String("format", format),
		slog.String("phash", hash.ToString()))
	return FormatHash(hash.GetHash()), b.Dx(), b.Dy(), nil
}

// VideoFingerprint hashes a collage of screenshots spread over the asset's
// duration. The asset must already carry its duration.
func VideoFingerprint(vp Screenshotter, a *models.Asset) (string, error) {
	if a.Duration <= 0 {
		return "", fmt.Errorf("video %q has no duration", a.Path)
	}
	timestamps := createTimeStamps(a.Duration, numImages)
	images, err := createScreenshots(vp, timestamps, a.Path)
	if err != nil {
		return "", fmt.Errorf("screenshots for %q: %w", a.Path, err)
	}

	collage, err := createCollage(images)
	if err != nil {
		return "", fmt.Errorf("collage for %q: %w", a.Path, err)
	}

	hash, err := goimagehash.PerceptionHash(collage)
	if err != nil {
		return "", fmt.Errorf("phash %q: %w", a.Path, err)
	}
	slog.Info("Video hashed", slog.String("path", a.Path), slog.String("phash", hash.ToString()))
	return FormatHash(hash.GetHash()), nil
}

func createTimeStamps(duration time.Duration, numTimestamps int) []string {
	if numTimestamps <= 0 {
		return nil
	}

	intro := duration / 10
	outro := duration * 9 / 10
	interval := (outro - intro) / time.Duration(numTimestamps)

	timestamps := make([]string, 0, numTimestamps)
	for i := 0; i < numTimestamps; i++ {
		timestamps = append(timestamps, durationToFFmpegTimestamp(intro+time.Duration(i)*interval))
	}
	return timestamps
}

func durationToFFmpegTimestamp(d time.Duration) string {
	totalMilliseconds := d.Milliseconds()
	hours := totalMilliseconds / (1000 * 60 * 60)
	minutes := (totalMilliseconds / (1000 * 60)) % 60
	seconds := (totalMilliseconds / 1000) % 60
	milliseconds := totalMilliseconds % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, milliseconds)
}

func createScreenshots(vp Screenshotter, timestamps []string, path string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(timestamps))
	var buf bytes.Buffer

	for _, t := range timestamps {
		if err := vp.ScreenshotAtTime(path, &buf, t, scWidth, scHeight); err != nil {
			return nil, err
		}
		img, err := bmp.Decode(&buf)
		if err != nil {
			return nil, fmt.Errorf("decode screenshot at %s: %w", t, err)
		}
		images = append(images, img)
		buf.Reset()
	}
	return images, nil
}

func createCollage(images []image.Image) (image.Image, error) {
	if len(images) != numImages {
		return nil, fmt.Errorf("expected %d images, got %d", numImages, len(images))
	}

	for i, img := range images {
		if img == nil {
			return nil, fmt.Errorf("image at index %d is nil", i)
		}
		bounds := img.Bounds()
		if bounds.Dx() != scWidth || bounds.Dy() != scHeight {
			return nil, fmt.Errorf("image at index %d has invalid dimensions: %dx%d, expected %dx%d",
				i, bounds.Dx(), bounds.Dy(), scWidth, scHeight)
		}
	}

	collage := image.NewRGBA(image.Rect(0, 0, gridSize*scWidth, gridSize*scHeight))
	for i, img := range images {
		x := (i % gridSize) * scWidth
		y := (i / gridSize) * scHeight
		draw.Draw(collage, image.Rect(x, y, x+scWidth, y+scHeight), img, img.Bounds().Min, draw.Src)
	}
	return collage, nil
}

package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"dupreview/internal/models"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	os.Exit(m.Run())
}

func gradient(w, h int, invert bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			if invert {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: uint8((y * 255) / h), B: v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestContentDigest(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte{0xAB}, 3*digestBufferSize)
	other := bytes.Clone(big)
	// The byte right after the first chunk must take part in the digest.
	other[digestBufferSize] = 0xCD

	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	c := filepath.Join(dir, "c.bin")
	require.NoError(t, os.WriteFile(a, big, 0o644))
	require.NoError(t, os.WriteFile(b, big, 0o644))
	require.NoError(t, os.WriteFile(c, other, 0o644))

	da, err := ContentDigest(a, int64(len(big)))
	require.NoError(t, err)
	db, err := ContentDigest(b, int64(len(big)))
	require.NoError(t, err)
	dc, err := ContentDigest(c, int64(len(other)))
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.NotEqual(t, da, dc)

	_, err = ContentDigest(filepath.Join(dir, "missing"), 0)
	assert.Error(t, err)
}

func TestImageFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writePNG(t, a, gradient(64, 48, false))
	writePNG(t, b, gradient(64, 48, false))
	writePNG(t, c, gradient(64, 48, true))

	ha, w, h, err := ImageFingerprint(a)
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Len(t, ha, 16)

	hb, _, _, err := ImageFingerprint(b)
	require.NoError(t, err)
	hc, _, _, err := ImageFingerprint(c)
	require.NoError(t, err)

	d, err := Distance(ha, hb)
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = Distance(ha, hc)
	require.NoError(t, err)
	assert.Positive(t, d)
}

func TestDistanceRejectsGarbage(t *testing.T) {
	_, err := Distance("zz", FormatHash(1))
	assert.Error(t, err)
}

func TestFormatHash(t *testing.T) {
	assert.Equal(t, "0000000000000001", FormatHash(1))
	assert.Equal(t, "ffffffffffffffff", FormatHash(^uint64(0)))
}

type fakeScreens struct {
	calls []string
	img   image.Image
}

func (f *fakeScreens) ScreenshotAtTime(_ string, w io.Writer, ts string, width, height int) error {
	f.calls = append(f.calls, ts)
	img := f.img
	if img == nil {
		img = gradient(width, height, false)
	}
	return bmp.Encode(w, img)
}

func TestVideoFingerprint(t *testing.T) {
	a := models.Asset{Path: "/videos/a.mp4", Duration: 100 * time.Second, IsVideo: true}

	vp := &fakeScreens{}
	h1, err := VideoFingerprint(vp, &a)
	require.NoError(t, err)
	require.Len(t, vp.calls, numImages)
	assert.Equal(t, "00:00:10.000", vp.calls[0])

	h2, err := VideoFingerprint(&fakeScreens{}, &a)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestVideoFingerprintErrors(t *testing.T) {
	_, err := VideoFingerprint(&fakeScreens{}, &models.Asset{Path: "/videos/empty.mp4"})
	assert.Error(t, err, "no duration")

	wrongSize := &fakeScreens{img: gradient(10, 10, false)}
	_, err = VideoFingerprint(wrongSize, &models.Asset{Path: "/videos/a.mp4", Duration: time.Minute})
	assert.Error(t, err)
}

func TestCreateTimeStamps(t *testing.T) {
	ts := createTimeStamps(time.Hour+2*time.Minute, 4)
	require.Len(t, ts, 4)
	assert.Equal(t, "00:06:12.000", ts[0])
	assert.Nil(t, createTimeStamps(time.Minute, 0))
}

package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"dupreview/internal/models"
)

type FFProbeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// GetVideoInfo runs ffprobe on the asset and fills in its dimensions and
// duration.
func GetVideoInfo(ctx context.Context, a *models.Asset) error {
	slog.Debug("Getting video info", slog.String("path", a.Path))
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration,size",
		"-show_entries", "stream=codec_type,codec_name,width,height",
		"-of", "json",
		a.Path)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffprobe %q: %w, stderr: %s", a.Path, err, stderr.String())
	}
	return Parse(out.Bytes(), a)
}

// Parse applies ffprobe JSON output to a.
func Parse(data []byte, a *models.Asset) error {
	var probe FFProbeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode ffprobe output: %w", err)
	}
	return setAsset(&probe, a)
}

func setAsset(f *FFProbeOutput, a *models.Asset) error {
	foundVideo := false
	for _, stream := range f.Streams {
		if stream.CodecType != "video" || foundVideo {
			continue
		}
		if stream.Width <= 0 || stream.Height <= 0 {
			return fmt.Errorf("invalid video dimensions for %q: width=%d, height=%d", a.FileName, stream.Width, stream.Height)
		}
		a.Width = stream.Width
		a.Height = stream.Height
		foundVideo = true
	}
	if !foundVideo {
		return fmt.Errorf("no video stream in %q", a.FileName)
	}

	if size, err := strconv.ParseInt(f.Format.Size, 10, 64); err == nil && size > 0 {
		a.Size = size
	}

	dur, err := strconv.ParseFloat(f.Format.Duration, 64)
	if err != nil {
		return fmt.Errorf("parse duration %q for %q: %w", f.Format.Duration, a.FileName, err)
	}
	if dur <= 0 {
		return fmt.Errorf("invalid duration from ffprobe, filename: %q, duration: %v", a.FileName, dur)
	}
	a.Duration = time.Duration(dur * float64(time.Second))
	return nil
}

package videoprocessor

import (
	"fmt"
	"io"
	"log/slog"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type FFmpegWrapper struct {
	logLevel string
}

// NewFFmpegInstance returns a wrapper that runs ffmpeg quietly unless silent
// is false.
func NewFFmpegInstance(silent bool) *FFmpegWrapper {
	logLevel := "verbose"
	if silent {
		logLevel = "error"
	}
	return &FFmpegWrapper{logLevel: logLevel}
}

// ScreenshotAtTime writes a single BMP frame, scaled to width x height, to
// scWriter.
func (f *FFmpegWrapper) ScreenshotAtTime(filePath string, scWriter io.Writer, timeStamp string, width, height int) error {
	slog.Debug("Creating screenshot",
		slog.Int("width", width),
		slog.Int("height", height),
		slog.String("timestamp", timeStamp),
		slog.String("path", filePath))

	stream := ffmpeg.
		Input(filePath, ffmpeg.KwArgs{"ss": timeStamp, "hide_banner": "", "loglevel": f.logLevel}).
		Output("pipe:",
			ffmpeg.KwArgs{
				"vcodec":  "bmp",
				"vframes": 1,
				"format":  "image2",
				"vf":      fmt.Sprintf("scale=%d:%d", width, height),
			}).
		WithOutput(scWriter)
	if f.logLevel != "error" {
		stream = stream.ErrorToStdOut()
	}

	err := stream.Run()
	if err != nil {
		return fmt.Errorf("ffmpeg screenshot of %q at %s: %w", filePath, timeStamp, err)
	}
	return nil
}

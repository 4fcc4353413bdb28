package ffprobe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupreview/internal/models"
)

func TestParse(t *testing.T) {
	out := `{
  "streams": [
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
    {"codec_type": "video", "codec_name": "mjpeg", "width": 300, "height": 300}
  ],
  "format": {"duration": "12.500000", "size": "1048576"}
}`
	a := models.NewAsset("/videos/clip.mp4")
	require.NoError(t, Parse([]byte(out), &a))

	assert.Equal(t, 1920, a.Width)
	assert.Equal(t, 1080, a.Height)
	assert.Equal(t, 12500*time.Millisecond, a.Duration)
	assert.Equal(t, int64(1048576), a.Size)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"no video":      `{"streams":[{"codec_type":"audio"}],"format":{"duration":"1"}}`,
		"bad size":      `{"streams":[{"codec_type":"video","width":0,"height":10}],"format":{"duration":"1"}}`,
		"bad duration":  `{"streams":[{"codec_type":"video","width":10,"height":10}],"format":{"duration":"N/A"}}`,
		"zero duration": `{"streams":[{"codec_type":"video","width":10,"height":10}],"format":{"duration":"0"}}`,
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			a := models.NewAsset("/videos/x.mp4")
			assert.Error(t, Parse([]byte(out), &a))
		})
	}
}

package ffmpeg_test

import (
	"path/filepath"
	"testing"

	"github.com/hbomb79/Grabber/internal/ffmpeg"
	"github.com/stretchr/testify/assert"
)

func Test_ProbeSummary_HasStream(t *testing.T) {
	summary := &ffmpeg.ProbeSummary{Streams: []ffmpeg.Stream{
		{CodecType: ffmpeg.VideoStream, CodecName: "h264"},
		{CodecType: ffmpeg.AudioStream, CodecName: "aac"},
	}}
	assert.True(t, summary.HasStream(ffmpeg.VideoStream))
	assert.True(t, summary.HasStream(ffmpeg.AudioStream))
	assert.False(t, summary.HasStream("subtitle"))

	audioOnly := &ffmpeg.ProbeSummary{Streams: []ffmpeg.Stream{{CodecType: ffmpeg.AudioStream, CodecName: "mp3"}}}
	assert.False(t, audioOnly.HasStream(ffmpeg.VideoStream))
}

func Test_Probe_MissingBinaryFails(t *testing.T) {
	dir := t.TempDir()
	prober := ffmpeg.NewProber(ffmpeg.Config{
		FfmpegBinPath:  filepath.Join(dir, "ffmpeg"),
		FfprobeBinPath: filepath.Join(dir, "ffprobe"),
	})

	summary, err := prober.Probe(filepath.Join(dir, "missing.mp4"))
	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "ffprobe")
}

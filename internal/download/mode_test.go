package download_test

import (
	"testing"

	"github.com/hbomb79/Grabber/internal/download"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseMode(t *testing.T) {
	mode, err := download.ParseMode("video")
	require.NoError(t, err)
	assert.Equal(t, download.Video, mode)

	mode, err = download.ParseMode("mp3")
	require.NoError(t, err)
	assert.Equal(t, download.MP3, mode)

	for _, bad := range []string{"", "VIDEO", "mp4", "audio", "mp3 "} {
		_, err := download.ParseMode(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func Test_ModeExtension(t *testing.T) {
	assert.Equal(t, storage.MP4, download.Video.Extension())
	assert.Equal(t, storage.MP3, download.MP3.Extension())
}

func Test_ContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", download.ContentType(storage.MP4))
	assert.Equal(t, "audio/mpeg", download.ContentType(storage.MP3))
	assert.Equal(t, "application/octet-stream", download.ContentType("webm"))
}

package download

import (
	"fmt"
	"strings"

	"github.com/hbomb79/Grabber/internal/ffmpeg"
	"github.com/hbomb79/Grabber/internal/storage"
)

// Mode is the kind of output a download should produce.
type Mode string

const (
	Video Mode = "video"
	MP3   Mode = "mp3"
)

var Modes = []Mode{Video, MP3}

// ParseMode returns the Mode matching the string provided. Matching
// is exact; any unknown mode results in an error.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}

	return "", fmt.Errorf("unknown download mode '%s', expected one of: %s", s, strings.Join(modeNames(), ", "))
}

// Extension returns the file extension of files produced by this mode.
func (m Mode) Extension() storage.Extension {
	if m == MP3 {
		return storage.MP3
	}

	return storage.MP4
}

// requiredStream is the ffprobe stream type that a file produced
// by this mode must contain.
func (m Mode) requiredStream() string {
	if m == MP3 {
		return ffmpeg.AudioStream
	}

	return ffmpeg.VideoStream
}

// ContentType returns the MIME type for files with the extension given.
func ContentType(ext storage.Extension) string {
	switch ext {
	case storage.MP3:
		return "audio/mpeg"
	case storage.MP4:
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

func modeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}

	return names
}

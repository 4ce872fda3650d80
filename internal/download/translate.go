package download

import (
	"errors"
	"strings"

	"github.com/hbomb79/Grabber/internal/ytdlp"
)

// Category classifies a failure reported by the extraction engine.
type Category int

const (
	Unknown Category = iota
	AuthRequired
	Private
	Unavailable
	TranscodeFailed
	RateLimited
	FormatUnavailable
)

type translation struct {
	category Category
	needles  []string
	message  string
}

// Ordered; the first row with a matching needle wins. Rows without a
// message pass the engine's text through unchanged.
var translations = []translation{
	{
		category: FormatUnavailable,
		needles:  []string{"requested format is not available", "no video formats found"},
	},
	{
		category: AuthRequired,
		needles:  []string{"sign in to confirm", "not a bot", "login required", "use --cookies", "authentication"},
		message:  "Authentication required: this platform is asking for a signed-in session to access this content. Configure COOKIE_BROWSER and try again.",
	},
	{
		category: Private,
		needles:  []string{"private"},
		message:  "This content is private and cannot be downloaded.",
	},
	{
		category: Unavailable,
		needles:  []string{"video unavailable", "not available", "has been removed", "no longer available", "does not exist"},
		message:  "This content is not available. It may have been removed, or may be restricted in this region.",
	},
	{
		category: TranscodeFailed,
		needles:  []string{"ffmpeg", "ffprobe", "postprocessing"},
		message:  "Transcoding failed: the media was downloaded but could not be converted. Check that ffmpeg is installed.",
	},
	{
		category: RateLimited,
		needles:  []string{"http error 429", "too many requests"},
		message:  "Rate limited by the platform. Please wait a few minutes before trying again.",
	},
}

// ClassifyEngineError returns the category of the engine failure message provided.
func ClassifyEngineError(msg string) Category {
	lower := strings.ToLower(msg)
	for _, t := range translations {
		for _, needle := range t.needles {
			if strings.Contains(lower, needle) {
				return t.category
			}
		}
	}

	return Unknown
}

// TranslateEngineError converts a raw failure message from the extraction
// engine in to a message fit for a user. Messages which match no known
// failure are returned unchanged.
func TranslateEngineError(msg string) string {
	category := ClassifyEngineError(msg)
	for _, t := range translations {
		if t.category == category && t.message != "" {
			return t.message
		}
	}

	return msg
}

// engineMessage extracts the most useful message from the error provided,
// preferring the diagnostic yt-dlp printed over the process error.
func engineMessage(err error) string {
	var engineErr *ytdlp.EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Message()
	}

	return err.Error()
}

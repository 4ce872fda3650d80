package download

import (
	"slices"
	"strings"
)

// CookieBrowsers are the browsers yt-dlp can read cookies from.
var CookieBrowsers = []string{"brave", "chrome", "chromium", "edge", "firefox", "opera", "safari", "vivaldi", "whale"}

// CookieBrowserName returns the browser portion of a yt-dlp cookie source,
// which takes the form BROWSER[+KEYRING][:PROFILE][::CONTAINER].
func CookieBrowserName(source string) string {
	if i := strings.IndexAny(source, "+:"); i >= 0 {
		return source[:i]
	}

	return source
}

// IsSupportedCookieBrowser reports whether the cookie source provided names
// a browser yt-dlp supports. The keyring and profile are not checked.
func IsSupportedCookieBrowser(source string) bool {
	return slices.Contains(CookieBrowsers, strings.ToLower(CookieBrowserName(source)))
}

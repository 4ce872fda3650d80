package download_test

import (
	"testing"

	"github.com/hbomb79/Grabber/internal/download"
	"github.com/stretchr/testify/assert"
)

func Test_CookieBrowserName(t *testing.T) {
	tests := map[string]string{
		"firefox":                           "firefox",
		"firefox:default-release":           "firefox",
		"chrome+gnomekeyring":               "chrome",
		"chrome+gnomekeyring:Profile 1":     "chrome",
		"firefox:default-release::Personal": "firefox",
		"":                                  "",
	}

	for source, expected := range tests {
		assert.Equal(t, expected, download.CookieBrowserName(source), "source: %q", source)
	}
}

func Test_IsSupportedCookieBrowser(t *testing.T) {
	for _, source := range []string{"firefox", "Firefox", "firefox:default-release", "chrome+kwallet:Profile 1", "edge"} {
		assert.True(t, download.IsSupportedCookieBrowser(source), "source: %q", source)
	}

	for _, source := range []string{"netscape", "netscape:default", "", ":default", "+kwallet"} {
		assert.False(t, download.IsSupportedCookieBrowser(source), "source: %q", source)
	}
}

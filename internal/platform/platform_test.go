package platform_test

import (
	"testing"

	"github.com/hbomb79/Grabber/internal/platform"
	"github.com/labstack/gommon/random"
	"github.com/stretchr/testify/assert"
)

func Test_Validate_AcceptsSupportedShapes(t *testing.T) {
	hosts := []string{"youtube.com", "youtu.be", "instagram.com", "wa.me", "whatsapp.com"}
	prefixes := []string{"", "http://", "https://", "www.", "http://www.", "https://www."}

	for _, host := range hosts {
		for _, prefix := range prefixes {
			url := prefix + host + "/" + random.String(8, random.Alphanumeric)
			assert.True(t, platform.Validate(url), "expected %q to be accepted", url)
		}
	}
}

func Test_Validate_RejectsOtherURLs(t *testing.T) {
	tests := []string{
		"",
		"https://example.com/video",
		"https://www.youtube.com/",
		"https://youtube.com",
		"ftp://youtube.com/watch?v=abc",
		"https://m.youtube.com/watch?v=abc",
		"https://vimeo.com/12345",
		"watch youtube.com/watch?v=abc",
		"https://www.tiktok.com/@user/video/1",
		"https://chat.whatsapp.com/invite",
		"https://YOUTUBE.COM/watch?v=abc",
	}

	for _, url := range tests {
		assert.False(t, platform.Validate(url), "expected %q to be rejected", url)
	}
}

func Test_Validate_AcceptsTrailingContent(t *testing.T) {
	assert.True(t, platform.Validate("https://www.youtube.com/watch?v=abc&list=xyz#t=10 trailing junk"))
	assert.True(t, platform.Validate("instagram.com/reel/abc?igshid=123"))
}

func Test_Detect(t *testing.T) {
	tests := []struct {
		url      string
		expected platform.Platform
	}{
		{"https://www.youtube.com/watch?v=abc", platform.YouTube},
		{"https://youtu.be/abc", platform.YouTube},
		{"https://www.instagram.com/p/abc/", platform.Instagram},
		{"https://wa.me/123456789", platform.WhatsApp},
		{"https://whatsapp.com/channel/abc", platform.WhatsApp},
		{"https://chat.whatsapp.com/invite", platform.WhatsApp},
		{"https://example.com/video", platform.None},
		{"", platform.None},

		// Priority order applies when several hosts appear in the URL
		{"https://www.instagram.com/p/abc/?ref=youtube.com", platform.YouTube},
		{"https://wa.me/123?text=instagram.com/p/abc", platform.Instagram},
		{"https://wa.me/123?text=https://youtu.be/abc", platform.YouTube},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, platform.Detect(tt.url))
		})
	}
}

func Test_ValidatedURLsAlwaysHaveAPlatform(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=abc",
		"youtu.be/abc",
		"www.instagram.com/reel/abc",
		"http://wa.me/1234",
		"whatsapp.com/channel/abc",
	} {
		assert.True(t, platform.Validate(url))
		assert.NotEqual(t, platform.None, platform.Detect(url), "validated url %q has no platform", url)
	}
}

func Test_PlatformString(t *testing.T) {
	assert.Equal(t, "youtube", platform.YouTube.String())
	assert.Equal(t, "none", platform.None.String())
}

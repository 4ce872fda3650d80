// Package platform classifies media URLs by the service that hosts them. The
// classification is purely syntactic: no network access is performed and the
// URL is never normalised.
package platform

import (
	"regexp"
	"strings"
)

type Platform string

const (
	None      Platform = ""
	YouTube   Platform = "youtube"
	Instagram Platform = "instagram"
	WhatsApp  Platform = "whatsapp"
)

func (p Platform) String() string {
	if p == None {
		return "none"
	}

	return string(p)
}

// The allow-list of URL shapes. Each expression is anchored only at
// the start of the input, so trailing content after the host is accepted.
var allowList = []*regexp.Regexp{
	regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`),
	regexp.MustCompile(`^(https?://)?(www\.)?instagram\.com/.+`),
	regexp.MustCompile(`^(https?://)?(www\.)?(wa\.me|whatsapp\.com)/.+`),
}

var detectionTable = []struct {
	platform Platform
	needles  []string
}{
	{YouTube, []string{"youtube.com", "youtu.be"}},
	{Instagram, []string{"instagram.com"}},
	{WhatsApp, []string{"wa.me", "whatsapp.com"}},
}

// Validate returns true if the URL matches one of the supported
// platform URL shapes.
func Validate(url string) bool {
	for _, expr := range allowList {
		if expr.MatchString(url) {
			return true
		}
	}

	return false
}

// Detect returns the first platform whose host name appears anywhere
// in the URL, or None if no platform matches.
func Detect(url string) Platform {
	for _, entry := range detectionTable {
		for _, needle := range entry.needles {
			if strings.Contains(url, needle) {
				return entry.platform
			}
		}
	}

	return None
}

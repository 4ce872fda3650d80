package ytdlp

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// Options is the platform-agnostic bundle of settings passed to yt-dlp for a single
// invocation. Zero values are omitted from the generated command line.
type Options struct {
	// Metadata-only mode: the URL is probed and a single JSON document describing
	// it is written to stdout. No media is downloaded.
	SkipDownload bool

	Format            string
	OutputTemplate    string
	MergeOutputFormat string
	RemuxVideo        string

	ExtractAudio bool
	AudioFormat  string
	AudioQuality string

	// Each entry is passed verbatim to --postprocessor-args, e.g. "ExtractAudio:-ar 44100"
	PostprocessorArgs []string

	UserAgent          string
	Headers            map[string]string
	CookiesFromBrowser string

	ExtractorRetries int
	FragmentRetries  int
	Retries          int
	SocketTimeout    time.Duration

	FfmpegLocation string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.67",
}

// UserAgents returns a copy of the pool of user-agents that requests are
// randomly assigned from.
func UserAgents() []string {
	out := make([]string, len(userAgents))
	copy(out, userAgents)
	return out
}

// RandomUserAgent picks a user-agent from the pool.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// BrowserHeaders returns the set of headers a desktop browser would
// send when navigating to a page.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
	}
}

// DefaultOptions returns the options shared by every invocation: a random
// user-agent, browser headers, retry counts and a socket timeout.
func DefaultOptions() Options {
	return Options{
		UserAgent:        RandomUserAgent(),
		Headers:          BrowserHeaders(),
		ExtractorRetries: 5,
		FragmentRetries:  5,
		Retries:          10,
		SocketTimeout:    30 * time.Second,
	}
}

// Args renders the options as yt-dlp command line arguments, with the
// target URL as the final argument.
func (opts Options) Args(url string) []string {
	args := []string{"--no-playlist", "--no-progress", "--no-warnings"}

	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}

	headerKeys := make([]string, 0, len(opts.Headers))
	for k := range opts.Headers {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		args = append(args, "--add-header", fmt.Sprintf("%s:%s", k, opts.Headers[k]))
	}

	if opts.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", opts.CookiesFromBrowser)
	}
	if opts.ExtractorRetries > 0 {
		args = append(args, "--extractor-retries", strconv.Itoa(opts.ExtractorRetries))
	}
	if opts.FragmentRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(opts.FragmentRetries))
	}
	if opts.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(opts.Retries))
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())))
	}
	if opts.FfmpegLocation != "" {
		args = append(args, "--ffmpeg-location", opts.FfmpegLocation)
	}

	if opts.SkipDownload {
		args = append(args, "--skip-download", "--dump-single-json")
		return append(args, "--", url)
	}

	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "--output", opts.OutputTemplate)
	}
	if opts.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeOutputFormat)
	}
	if opts.RemuxVideo != "" {
		args = append(args, "--remux-video", opts.RemuxVideo)
	}
	if opts.ExtractAudio {
		args = append(args, "--extract-audio")
		if opts.AudioFormat != "" {
			args = append(args, "--audio-format", opts.AudioFormat)
		}
		if opts.AudioQuality != "" {
			args = append(args, "--audio-quality", opts.AudioQuality)
		}
	}
	for _, ppa := range opts.PostprocessorArgs {
		args = append(args, "--postprocessor-args", ppa)
	}

	return append(args, "--", url)
}

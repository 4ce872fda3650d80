// Package ytdlp drives the yt-dlp binary, which performs all of the platform specific
// scraping, format negotiation and (via ffmpeg) post-processing of downloaded media.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/mitchellh/mapstructure"
)

var log = logger.Get("yt-dlp")

type (
	Config struct {
		BinaryPath string `yaml:"binary" env:"YTDLP_BINARY_PATH" env-default:"yt-dlp" validate:"required"`
	}

	// CommandRunner executes the binary provided with the given arguments, returning
	// the captured stdout and stderr of the process.
	CommandRunner interface {
		Run(ctx context.Context, binary string, args []string) (stdout []byte, stderr []byte, err error)
	}

	// ProbeResult is the subset of yt-dlp's info JSON that Grabber makes use of. Nullable
	// fields are pointers, as yt-dlp emits null for information a platform does not provide.
	ProbeResult struct {
		ID         string   `mapstructure:"id"`
		Title      string   `mapstructure:"title"`
		Duration   *float64 `mapstructure:"duration"`
		Thumbnail  *string  `mapstructure:"thumbnail"`
		Uploader   *string  `mapstructure:"uploader"`
		Extractor  string   `mapstructure:"extractor_key"`
		WebpageURL string   `mapstructure:"webpage_url"`
	}

	// EngineError is returned when yt-dlp exits unsuccessfully. The message is
	// derived from the processes stderr output.
	EngineError struct {
		ExitCode int
		Stderr   string
		Err      error
	}

	Client struct {
		config Config
		runner CommandRunner
	}

	execRunner struct{}
)

func New(config Config) *Client {
	return NewWithRunner(config, execRunner{})
}

func NewWithRunner(config Config, runner CommandRunner) *Client {
	if config.BinaryPath == "" {
		config.BinaryPath = "yt-dlp"
	}

	return &Client{config: config, runner: runner}
}

// Probe runs yt-dlp in metadata-only mode against the URL provided. The SkipDownload
// flag of the options is forced on.
func (client *Client) Probe(ctx context.Context, url string, opts Options) (*ProbeResult, error) {
	opts.SkipDownload = true
	stdout, err := client.run(ctx, opts.Args(url))
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata output: %w", err)
	}

	var result ProbeResult
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &result})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp metadata: %w", err)
	}

	return &result, nil
}

// Download runs yt-dlp to download (and post-process) the media at the URL
// provided. The location of the output is controlled by the options output template.
func (client *Client) Download(ctx context.Context, url string, opts Options) error {
	opts.SkipDownload = false
	_, err := client.run(ctx, opts.Args(url))
	return err
}

func (client *Client) run(ctx context.Context, args []string) ([]byte, error) {
	log.Emit(logger.DEBUG, "Running %s %s\n", client.config.BinaryPath, strings.Join(args, " "))
	stdout, stderr, err := client.runner.Run(ctx, client.config.BinaryPath, args)
	if err == nil {
		return stdout, nil
	}

	engineErr := &EngineError{ExitCode: -1, Stderr: string(stderr), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		engineErr.ExitCode = exitErr.ExitCode()
	}

	log.Emit(logger.DEBUG, "yt-dlp failed (exit code %d): %s\n", engineErr.ExitCode, engineErr.Message())
	return nil, engineErr
}

func (execRunner) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), err
}

// Message extracts the most relevant line from the engines error output. yt-dlp
// prefixes fatal errors with 'ERROR:', so the last such line is preferred. If none
// exist, the last non-empty line of stderr is used, falling back to the process error.
func (e *EngineError) Message() string {
	var lastLine, lastError string
	for _, line := range strings.Split(e.Stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lastLine = line
		if strings.HasPrefix(line, "ERROR:") {
			lastError = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}

	switch {
	case lastError != "":
		return lastError
	case lastLine != "":
		return lastLine
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "yt-dlp failed for an unknown reason"
	}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("yt-dlp: %s", e.Message())
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

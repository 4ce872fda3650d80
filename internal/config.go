package internal

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabber/internal/api"
	"github.com/hbomb79/Grabber/internal/download"
	"github.com/hbomb79/Grabber/internal/ffmpeg"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/hbomb79/Grabber/internal/ytdlp"
	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// GrabberConfig is the struct used to contain the
// various user config supplied by file or environment.
type GrabberConfig struct {
	TempDir  string `yaml:"temp_dir" env:"TEMP_DIR" env-default:"/tmp" env-description:"Directory downloaded files are stored in until fetched" validate:"required"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO" env-description:"Minimum level of log messages to emit" validate:"oneof=VERBOSE DEBUG INFO WARNING ERROR FATAL"`

	// Advertised by the status endpoint; these are not enforced.
	MaxFileSizeMB   int `yaml:"max_file_size_mb" env:"MAX_FILE_SIZE_MB" env-default:"200" validate:"min=1"`
	DownloadTimeout int `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT" env-default:"600" env-description:"Download timeout in seconds" validate:"min=1"`

	RestConfig api.RestConfig        `yaml:"api"`
	Download   download.Config       `yaml:"download"`
	YtDlp      ytdlp.Config          `yaml:"ytdlp"`
	FFmpeg     ffmpeg.Config         `yaml:"ffmpeg"`
	Janitor    storage.JanitorConfig `yaml:"janitor"`
}

// LoadConfig reads the configuration from the environment. If a config path
// is provided, the YAML file at that path is read first and the environment
// overrides it. The loaded config is validated before being returned.
func LoadConfig(configPath string) (*GrabberConfig, error) {
	config := &GrabberConfig{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := config.normalise(); err != nil {
		return nil, err
	}

	if err := newConfigValidator().Struct(config); err != nil {
		return nil, fmt.Errorf("configuration is invalid: %w", err)
	}

	return config, nil
}

func (config *GrabberConfig) normalise() error {
	tempDir, err := homedir.Expand(config.TempDir)
	if err != nil {
		return fmt.Errorf("failed to expand temp dir '%s': %w", config.TempDir, err)
	}

	config.TempDir = tempDir
	config.LogLevel = strings.ToUpper(strings.TrimSpace(config.LogLevel))
	// Only the browser name is case-insensitive, profile names are not.
	cookieSource := strings.TrimSpace(config.Download.CookieBrowser)
	browser := download.CookieBrowserName(cookieSource)
	config.Download.CookieBrowser = strings.ToLower(browser) + cookieSource[len(browser):]
	config.Download.FfmpegLocation = config.FFmpeg.FfmpegBinPath
	config.RestConfig.LogLevel = logger.LevelFromString(config.LogLevel)
	return nil
}

// Limits returns the advisory limits advertised by the API.
func (config *GrabberConfig) Limits() api.Limits {
	return api.Limits{MaxFileSizeMB: config.MaxFileSizeMB, DownloadTimeoutSeconds: config.DownloadTimeout}
}

// newConfigValidator returns a validator which understands the custom
// tags used by the configuration structs.
func newConfigValidator() *validator.Validate {
	validate := validator.New()
	validations := map[string]validator.Func{
		"listen_addr":    func(fl validator.FieldLevel) bool { return isListenAddr(fl.Field().String()) },
		"cookie_browser": func(fl validator.FieldLevel) bool { return download.IsSupportedCookieBrowser(fl.Field().String()) },
	}

	for tag, fn := range validations {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register config validation '%s': %v", tag, err))
		}
	}

	return validate
}

// isListenAddr reports whether addr is a host:port pair suitable for
// listening on. The host may be empty, a hostname, or an IP address (IPv6
// addresses must be bracketed). Port 0 is accepted.
func isListenAddr(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || strings.ContainsAny(host, " \t") {
		return false
	}

	_, err = strconv.ParseUint(port, 10, 16)
	return err == nil
}

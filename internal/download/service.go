// Package download implements Grabber's extraction gateway: media analysis and
// downloading through yt-dlp, with failures translated in to user-facing messages.
// All engine work is performed by a bounded pool of workers so that slow
// extractions never occupy the goroutines serving HTTP requests.
package download

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/hbomb79/Grabber/internal/ffmpeg"
	"github.com/hbomb79/Grabber/internal/platform"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/hbomb79/Grabber/internal/ytdlp"
	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/hbomb79/Grabber/pkg/worker"
)

var (
	log = logger.Get("DownloadServ")

	ErrNotRunning = errors.New("download service is not running")
)

const maxAutoWorkers = 32

type (
	engine interface {
		Probe(ctx context.Context, url string, opts ytdlp.Options) (*ytdlp.ProbeResult, error)
		Download(ctx context.Context, url string, opts ytdlp.Options) error
	}

	fileStore interface {
		OutputTemplate(fileID string) string
		ResolvePath(fileID string, ext storage.Extension) string
		Exists(path string) bool
		Delete(path string)
	}

	Config struct {
		// WorkerThreads is the number of concurrent engine invocations. Zero
		// selects a value based on the number of CPUs available.
		WorkerThreads int    `yaml:"worker_threads" env:"WORKER_THREADS" env-default:"0" validate:"min=0"`
		VerifyOutput  bool   `yaml:"verify_output" env:"VERIFY_OUTPUT" env-default:"true"`
		CookieBrowser string `yaml:"cookie_browser" env:"COOKIE_BROWSER" validate:"omitempty,cookie_browser"`

		// FfmpegLocation is handed to yt-dlp for post-processing. It is
		// populated from the ffmpeg configuration.
		FfmpegLocation string `yaml:"-"`
	}

	MediaInfo struct {
		Title     string            `json:"title"`
		Duration  *float64          `json:"duration"`
		Thumbnail *string           `json:"thumbnail"`
		Uploader  *string           `json:"uploader"`
		Platform  platform.Platform `json:"platform"`
	}

	job struct {
		ctx    context.Context
		cancel func()
		run    func(context.Context) error
		done   chan error
	}

	// Service performs analysis and downloads on behalf of the API. Requests are
	// queued as jobs and executed by the services worker pool. A job is detached
	// from the context of the request that created it, so a client going away
	// does not abort an in-flight download; stopping the service does.
	Service struct {
		*sync.Mutex
		config     Config
		engine     engine
		store      fileStore
		prober     ffmpeg.Prober
		queue      []*job
		workerPool *worker.WorkerPool
		ctx        context.Context
	}
)

// New constructs the download service. The prober may be nil, in which
// case produced files are not verified regardless of the configuration.
func New(config Config, engine engine, store fileStore, prober ffmpeg.Prober) *Service {
	service := &Service{
		Mutex:      &sync.Mutex{},
		config:     config,
		engine:     engine,
		store:      store,
		prober:     prober,
		queue:      make([]*job, 0),
		workerPool: worker.NewWorkerPool(),
	}

	for i := 0; i < config.Workers(); i++ {
		label := fmt.Sprintf("download-worker-%d", i)
		service.workerPool.PushWorker(worker.NewWorker(label, service.performJob))
	}

	return service
}

// Workers returns the number of workers the service will run.
func (config Config) Workers() int {
	if config.WorkerThreads > 0 {
		return config.WorkerThreads
	}

	return min(maxAutoWorkers, runtime.NumCPU()+4)
}

// NewFileID returns a fresh identifier for a download.
func NewFileID() string {
	return uuid.NewString()
}

// Run starts the services workers, and blocks until the context provided is
// cancelled. Cancellation aborts all running jobs and fails any that are queued.
func (service *Service) Run(ctx context.Context) error {
	service.Lock()
	service.ctx = ctx
	service.Unlock()

	if err := service.workerPool.Start(); err != nil {
		return err
	}

	log.Emit(logger.INFO, "Download service started with %d workers\n", service.workerPool.Size())
	<-ctx.Done()

	service.workerPool.Close()
	service.failQueuedJobs(ErrNotRunning)
	log.Emit(logger.STOP, "Download service stopped\n")
	return nil
}

// Analyze extracts information about the media at the URL provided, without
// downloading it. Failures are returned as an *AnalysisError.
func (service *Service) Analyze(ctx context.Context, url string) (*MediaInfo, error) {
	log.Emit(logger.INFO, "Analyzing %s\n", url)

	var result *ytdlp.ProbeResult
	err := service.submit(ctx, func(ctx context.Context) error {
		opts := service.baseOptions()
		opts.SkipDownload = true

		probed, err := service.engine.Probe(ctx, url, opts)
		if err != nil {
			return err
		}

		result = probed
		return nil
	})
	if err != nil {
		msg := engineMessage(err)
		log.Emit(logger.WARNING, "Analysis of %s failed: %s\n", url, msg)
		return nil, &AnalysisError{Message: TranslateEngineError(msg), Err: err}
	}

	return &MediaInfo{
		Title:     result.Title,
		Duration:  result.Duration,
		Thumbnail: result.Thumbnail,
		Uploader:  result.Uploader,
		Platform:  platform.Detect(url),
	}, nil
}

// Download fetches the media at the URL provided and converts it according to
// the mode given, storing the output in the file store under the fileID. The path
// of the produced file and its filename are returned. Failures are returned as
// a *DownloadError.
func (service *Service) Download(ctx context.Context, url string, mode Mode, fileID string) (string, string, error) {
	ext := mode.Extension()
	path := service.store.ResolvePath(fileID, ext)
	filename := storage.Filename(fileID, ext)

	log.Emit(logger.INFO, "Downloading %s as %s (%s)\n", url, mode, fileID)
	err := service.submit(ctx, func(ctx context.Context) error {
		if err := service.engine.Download(ctx, url, service.downloadOptions(mode, fileID)); err != nil {
			return err
		}

		if !service.store.Exists(path) {
			return ErrFileNotFound
		}

		if err := service.verifyOutput(path, mode); err != nil {
			service.store.Delete(path)
			return err
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			log.Emit(logger.ERROR, "Download of %s reported success, but %s does not exist\n", url, path)
			return "", "", &DownloadError{Message: ErrFileNotFound.Error(), Err: err}
		}

		msg := engineMessage(err)
		log.Emit(logger.WARNING, "Download of %s failed: %s\n", url, msg)
		return "", "", &DownloadError{Message: TranslateEngineError(msg), Err: err}
	}

	log.Emit(logger.SUCCESS, "Downloaded %s to %s\n", url, path)
	return path, filename, nil
}

func (service *Service) verifyOutput(path string, mode Mode) error {
	if !service.config.VerifyOutput || service.prober == nil {
		return nil
	}

	summary, err := service.prober.Probe(path)
	if err != nil {
		return err
	}

	if !summary.HasStream(mode.requiredStream()) {
		return fmt.Errorf("ffprobe found no %s stream in %s (format %s)", mode.requiredStream(), path, summary.FormatName)
	}

	log.Emit(logger.DEBUG, "Verified %s: format=%s duration=%s size=%s\n", path, summary.FormatName, summary.Duration, summary.Size)
	return nil
}

func (service *Service) baseOptions() ytdlp.Options {
	opts := ytdlp.DefaultOptions()
	opts.CookiesFromBrowser = service.config.CookieBrowser
	opts.FfmpegLocation = service.config.FfmpegLocation

	return opts
}

func (service *Service) downloadOptions(mode Mode, fileID string) ytdlp.Options {
	opts := service.baseOptions()
	opts.OutputTemplate = service.store.OutputTemplate(fileID)

	switch mode {
	case MP3:
		opts.Format = "bestaudio/best"
		opts.ExtractAudio = true
		opts.AudioFormat = "mp3"
		opts.AudioQuality = "192K"
		opts.PostprocessorArgs = []string{"ExtractAudio:-ar 44100 -ac 2"}
	default:
		opts.Format = "best[ext=mp4]/bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
		opts.MergeOutputFormat = "mp4"
		opts.RemuxVideo = "mp4"
		opts.PostprocessorArgs = []string{"Merger:-c:v copy -c:a aac"}
	}

	return opts
}

// submit queues the work provided and waits for it to complete. If the
// request context is cancelled first, submit returns immediately but the
// work continues in the background.
func (service *Service) submit(ctx context.Context, run func(context.Context) error) error {
	service.Lock()
	if service.ctx == nil || service.ctx.Err() != nil {
		service.Unlock()
		return ErrNotRunning
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(service.ctx, cancel)
	j := &job{
		ctx:    jobCtx,
		cancel: func() { stop(); cancel() },
		run:    run,
		done:   make(chan error, 1),
	}
	service.queue = append(service.queue, j)
	service.Unlock()

	if err := service.workerPool.WakeupWorkers(); err != nil {
		log.Emit(logger.DEBUG, "Failed to wake workers for new job: %v\n", err)
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		log.Emit(logger.WARNING, "Request cancelled while waiting for job, job will continue in the background\n")
		return ctx.Err()
	}
}

// performJob is the worker function for the services WorkerPool. It claims
// the oldest queued job and runs it.
func (service *Service) performJob(w worker.Worker) (worked bool, err error) {
	j := service.claimJob()
	if j == nil {
		return false, nil
	}

	defer j.cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			j.done <- err
			worked = true
		}
	}()

	j.done <- j.run(j.ctx)
	return true, nil
}

func (service *Service) claimJob() *job {
	service.Lock()
	defer service.Unlock()

	if len(service.queue) == 0 {
		return nil
	}

	j := service.queue[0]
	service.queue[0] = nil
	service.queue = service.queue[1:]
	return j
}

func (service *Service) failQueuedJobs(err error) {
	service.Lock()
	defer service.Unlock()

	for _, j := range service.queue {
		j.cancel()
		j.done <- err
	}
	service.queue = service.queue[:0]
}

package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/hbomb79/Grabber/internal/api"
	"github.com/hbomb79/Grabber/internal/download"
	"github.com/hbomb79/Grabber/internal/ffmpeg"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/hbomb79/Grabber/internal/ytdlp"
	"github.com/hbomb79/Grabber/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// grabberImpl represents the top-level object for the server, and is responsible
	// for initialising the file store and the services which make use of it.
	grabberImpl struct {
		config GrabberConfig
		store  *storage.Store

		downloadService RunnableService
		restGateway     RunnableService
		janitor         RunnableService
	}
)

// New constructs Grabber from the configuration provided. The temp directory
// is created if it does not exist; an error is returned if it cannot be used.
func New(config GrabberConfig) (*grabberImpl, error) {
	log.Emit(logger.DEBUG, "Bootstrapping Grabber services using config: %#v\n", config)

	store := storage.New(config.TempDir)
	if err := store.EnsureDir(); err != nil {
		return nil, err
	}

	var prober ffmpeg.Prober
	if config.Download.VerifyOutput {
		prober = ffmpeg.NewProber(config.FFmpeg)
	}

	downloadService := download.New(config.Download, ytdlp.New(config.YtDlp), store, prober)
	grabber := &grabberImpl{
		config:          config,
		store:           store,
		downloadService: downloadService,
		restGateway:     api.NewRestGateway(&config.RestConfig, config.Limits(), downloadService, store),
		janitor:         storage.NewJanitor(store, config.Janitor),
	}

	return grabber, nil
}

// Run will start all of Grabber by bringing up the download service, the
// REST gateway and (if enabled) the janitor.
//
// This function will not return until Grabber is stopped.
// To stop Grabber, the provided context must be cancelled. Errors from which Grabber cannot recover
// will also cause Grabber to stop.
func (grabber *grabberImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel(fmt.Errorf("%s crashed: %w", label, err))
	}

	log.Emit(logger.INFO, "Storing downloads in %s (advisory limits: %dMB, %ds)\n", grabber.store.Dir(), grabber.config.MaxFileSizeMB, grabber.config.DownloadTimeout)

	wg := &sync.WaitGroup{}
	grabber.spawnAsyncService(ctx, wg, grabber.downloadService, "download-service", crashHandler)
	grabber.spawnAsyncService(ctx, wg, grabber.restGateway, "rest-gateway", crashHandler)
	grabber.spawnAsyncService(ctx, wg, grabber.janitor, "janitor", crashHandler)
	log.Emit(logger.SUCCESS, "Grabber services spawned!\n")

	wg.Wait()

	// Cancellation of the parent context is a normal shutdown, anything
	// else is the cause of a crash.
	if cause := context.Cause(ctx); cause != nil && parent.Err() == nil {
		return cause
	}

	log.Emit(logger.STOP, "Grabber stopped\n")
	return nil
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the Grabber service waitgroup is updated correctly
func (grabber *grabberImpl) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}

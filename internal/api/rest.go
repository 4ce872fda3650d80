// Package api exposes Grabber over HTTP. The RestGateway owns the echo router,
// and mounts the controllers which translate requests in to calls on the
// download service and file store.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/hbomb79/Grabber/internal/api/files"
	"github.com/hbomb79/Grabber/internal/api/media"
	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
)

var log = logger.Get("API")

const shutdownGracePeriod = 10 * time.Second

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"HOST_ADDR" env-default:"0.0.0.0:8000" validate:"required,listen_addr"`

		// LogLevel is applied to echo's own logger. It is populated from
		// the top-level log level.
		LogLevel logger.LogStatus `yaml:"-"`
	}

	// Limits are advertised by the status endpoint. They are advisory, and
	// are not enforced by the API.
	Limits struct {
		MaxFileSizeMB          int `json:"max_file_size_mb"`
		DownloadTimeoutSeconds int `json:"download_timeout_seconds"`
	}

	StatusResponse struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Limits  *Limits `json:"limits,omitempty"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It's sole responsbility
	// is to create the routes Grabber exposes, and apply the middleware common to them.
	RestGateway struct {
		config          *RestConfig
		limits          Limits
		ec              *echo.Echo
		mediaController controller
		filesController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers.
func NewRestGateway(
	config *RestConfig,
	limits Limits,
	mediaService media.Service,
	fileStore files.Store,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true
	ec.Logger.SetLevel(echoLogLevel(config.LogLevel))
	ec.HTTPErrorHandler = apierror.GetHTTPErrorHandler(ec.DefaultHTTPErrorHandler)

	validate := validator.New()
	gateway := &RestGateway{
		config:          config,
		limits:          limits,
		ec:              ec,
		mediaController: media.New(validate, mediaService),
		filesController: files.New(fileStore),
	}

	ec.Pre(middleware.RemoveTrailingSlash())
	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		// Reflect the request origin so credentialed requests are accepted.
		UnsafeWildcardOriginWithAllowCredentials: true,
	}))
	ec.Use(getRequestValidatorMiddleware())

	ec.GET("/", gateway.status)
	gateway.mediaController.SetRoutes(ec.Group(""))
	gateway.filesController.SetRoutes(ec.Group("/file"))

	return gateway
}

func echoLogLevel(level logger.LogStatus) gommonlog.Lvl {
	switch {
	case level <= logger.DEBUG:
		return gommonlog.DEBUG
	case level < logger.WARNING:
		return gommonlog.INFO
	case level == logger.WARNING:
		return gommonlog.WARN
	default:
		return gommonlog.ERROR
	}
}

// ServeHTTP allows the gateway to be used as a http.Handler, serving
// requests without starting a listener.
func (gateway *RestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.INFO, "Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxCancel(err)
		}
	}()

	// Shutdown the router once the context is cancelled, allowing
	// in-flight requests a grace period to complete.
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := gateway.ec.Shutdown(shutdownCtx); err != nil {
		log.Emit(logger.WARNING, "Graceful shutdown of HTTP server failed, forcing close: %v\n", err)
		gateway.ec.Close()
	}

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

func (gateway *RestGateway) status(ec echo.Context) error {
	return ec.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "Universal Media Downloader API",
		Limits:  &gateway.limits,
	})
}

package files

import (
	"fmt"
	"net/http"

	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/hbomb79/Grabber/internal/download"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/hbomb79/Grabber/pkg/sync"
	"github.com/labstack/echo/v4"
)

var (
	log = logger.Get("FilesAPI")

	errFileNotFound = apierror.NewError(http.StatusNotFound, apierror.CodeFileNotFound, "File not found.")
)

type (
	Store interface {
		Locate(fileID string) (string, storage.Extension, error)
		ScheduleDelete(path string) <-chan struct{}
	}

	Controller struct {
		store    Store
		inflight sync.ClaimSet[string]
	}
)

func New(store Store) *Controller {
	return &Controller{store: store}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/:file_id", controller.fetch)
}

// fetch streams a previously downloaded file to the client as an attachment. Once
// the file has been sent it is deleted, so each file can be fetched only once. A
// file which is already being sent to another client is reported as not found.
func (controller *Controller) fetch(ec echo.Context) error {
	fileID := ec.Param("file_id")
	if !controller.inflight.Claim(fileID) {
		return errFileNotFound
	}

	path, ext, err := controller.store.Locate(fileID)
	if err != nil {
		controller.inflight.Release(fileID)
		return errFileNotFound
	}

	ec.Response().Header().Set(echo.HeaderContentType, download.ContentType(ext))
	if err := ec.Attachment(path, storage.Filename(fileID, ext)); err != nil {
		controller.inflight.Release(fileID)
		return fmt.Errorf("failed to send file %s: %w", path, err)
	}

	// The claim is held until the file is gone
	log.Emit(logger.DEBUG, "Served %s, scheduling deletion\n", path)
	deleted := controller.store.ScheduleDelete(path)
	go func() {
		<-deleted
		controller.inflight.Release(fileID)
	}()

	return nil
}

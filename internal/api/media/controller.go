package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/hbomb79/Grabber/internal/download"
	"github.com/hbomb79/Grabber/internal/platform"
	"github.com/labstack/echo/v4"
)

var (
	errInvalidURL          = apierror.NewError(http.StatusBadRequest, apierror.CodeInvalidURL, "Invalid or unsupported URL.")
	errUnsupportedPlatform = apierror.NewError(http.StatusBadRequest, apierror.CodeUnsupportedPlatform, "Unsupported platform.")
)

type (
	AnalyzeRequest struct {
		URL string `json:"url" validate:"required"`
	}

	DownloadRequest struct {
		URL  string `json:"url" validate:"required"`
		Mode string `json:"mode" validate:"required,oneof=video mp3"`
	}

	DownloadResponse struct {
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
	}

	Service interface {
		Analyze(ctx context.Context, url string) (*download.MediaInfo, error)
		Download(ctx context.Context, url string, mode download.Mode, fileID string) (string, string, error)
	}

	Controller struct {
		service  Service
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/analyze", controller.analyze)
	eg.POST("/download", controller.download)
}

// analyze extracts information about the media at the URL provided,
// without downloading it.
func (controller *Controller) analyze(ec echo.Context) error {
	var request AnalyzeRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	if !platform.Validate(request.URL) {
		return errInvalidURL
	}
	if platform.Detect(request.URL) == platform.None {
		return errUnsupportedPlatform
	}

	info, err := controller.service.Analyze(ec.Request().Context(), request.URL)
	if err != nil {
		return serviceError(apierror.CodeAnalysisFailed, err)
	}

	return ec.JSON(http.StatusOK, info)
}

// download fetches and converts the media at the URL provided. The
// response references the produced file, which must subsequently be
// fetched from the files endpoint.
func (controller *Controller) download(ec echo.Context) error {
	var request DownloadRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	if !platform.Validate(request.URL) {
		return errInvalidURL
	}

	mode, err := download.ParseMode(request.Mode)
	if err != nil {
		return apierror.NewError(http.StatusBadRequest, apierror.CodeInvalidBody, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	fileID := download.NewFileID()
	_, filename, err := controller.service.Download(ec.Request().Context(), request.URL, mode, fileID)
	if err != nil {
		return serviceError(apierror.CodeDownloadFailed, err)
	}

	return ec.JSON(http.StatusOK, DownloadResponse{FileID: fileID, Filename: filename})
}

func (controller *Controller) bind(ec echo.Context, request any) error {
	if err := ec.Bind(request); err != nil {
		return apierror.NewError(http.StatusBadRequest, apierror.CodeInvalidBody, "Invalid body").WithInternal(err)
	}

	if err := controller.validate.Struct(request); err != nil {
		return apierror.NewError(http.StatusBadRequest, apierror.CodeInvalidBody, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	return nil
}

// serviceError converts an error from the download service in to an APIError
// carrying the user-facing message of the failure.
func serviceError(code string, err error) apierror.APIError {
	message := err.Error()

	var analysisErr *download.AnalysisError
	var downloadErr *download.DownloadError
	switch {
	case errors.As(err, &analysisErr):
		message = analysisErr.Message
	case errors.As(err, &downloadErr):
		message = downloadErr.Message
	}

	return apierror.NewError(http.StatusInternalServerError, code, message).WithInternal(errors.Unwrap(err))
}

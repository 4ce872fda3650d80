// Package apierror defines the error body returned by every failing Grabber
// endpoint, and the echo error handler which renders it.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hbomb79/Grabber/pkg/logger"
	"github.com/labstack/echo/v4"
)

// Stable, machine readable error codes returned in APIError.Code
const (
	CodeInvalidURL          = "INVALID_URL"
	CodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	CodeInvalidBody         = "INVALID_BODY"
	CodeAnalysisFailed      = "ANALYSIS_FAILED"
	CodeDownloadFailed      = "DOWNLOAD_FAILED"
	CodeFileNotFound        = "FILE_NOT_FOUND"
)

type APIError struct {
	// Human readable error display message
	Message string `json:"message"`

	// A machine readable and stable identifier for the error case being represented
	Code string `json:"code"`

	// Mirrors Message. Existing web clients read the error from this field.
	Detail string `json:"detail"`

	// Used to alter the HTTP response status in accordance with the error
	Status int `json:"-"`

	// Additional message for internal logging only. Will not be included in the message
	// sent to the user.
	InternalMessage string `json:"-"`
}

// Error satisifies the Go error interface and simply exposes the
// message contained by this APIError.
func (err APIError) Error() string {
	return fmt.Sprintf("api error: %s", err.Message)
}

// NewError constructs an APIError with the status, code and message provided.
func NewError(status int, code string, message string) APIError {
	return APIError{Status: status, Code: code, Message: message}
}

// WithInternal returns a copy of the APIError with the internal message
// set to the error provided.
func (err APIError) WithInternal(internal error) APIError {
	if internal != nil {
		err.InternalMessage = internal.Error()
	}

	return err
}

// GetHTTPErrorHandler returns an echo HTTP error handler
// which understands how to interpret APIError. Echo HTTPErrors are
// converted to an APIError so that every failure shares the same body.
// If neither applies, the error is passed to the fallback handler.
func GetHTTPErrorHandler(fallbackHandler echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	logger := logger.Get("API")
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			logger.Warnf("Error after response committed for %s %s: %v\n", ctx.Request().Method, ctx.Request().RequestURI, err)
			return
		}

		var apiErr APIError
		if ok := errors.As(err, &apiErr); !ok {
			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) {
				logger.Warnf(
					"%s request to %s caused error response, however the response does not satisfy the APIError interface. Falling back to default HTTP error handling\n",
					ctx.Request().Method, ctx.Request().RequestURI,
				)
				fallbackHandler(err, ctx)
				return
			}

			apiErr = fromHTTPError(httpErr)
		}

		if apiErr.Status == 0 {
			apiErr.Status = http.StatusInternalServerError
		}
		if len(apiErr.Message) == 0 {
			apiErr.Message = http.StatusText(apiErr.Status)
		}
		if len(apiErr.Code) == 0 {
			apiErr.Code = http.StatusText(apiErr.Status)
		}
		if len(apiErr.InternalMessage) > 0 {
			logger.Errorf("Request failure, internal error: %s\n", apiErr.InternalMessage)
		}
		apiErr.Detail = apiErr.Message

		if err := ctx.JSON(apiErr.Status, apiErr); err != nil {
			fallbackHandler(err, ctx)
		}
	}
}

func fromHTTPError(httpErr *echo.HTTPError) APIError {
	apiErr := APIError{Status: httpErr.Code, Message: http.StatusText(httpErr.Code)}
	if msg, ok := httpErr.Message.(string); ok && msg != "" {
		apiErr.Message = msg
	}
	if httpErr.Internal != nil {
		apiErr.InternalMessage = httpErr.Internal.Error()
	}

	if httpErr.Code == http.StatusBadRequest {
		apiErr.Code = CodeInvalidBody
	}

	return apiErr
}

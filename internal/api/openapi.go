package api

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/labstack/echo/v4"
	middleware "github.com/oapi-codegen/echo-middleware"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// GetSwagger loads and validates the embedded OpenAPI document which
// describes Grabbers API.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	if err := spec.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("embedded OpenAPI document is invalid: %w", err)
	}

	return spec, nil
}

// getRequestValidatorMiddleware returns a middleware which uses the embedded OpenAPI
// document to inspect incoming request bodies and reject those which do not match.
// Only POST requests carry a body, all others pass through untouched.
func getRequestValidatorMiddleware() echo.MiddlewareFunc {
	spec, err := GetSwagger()
	if err != nil {
		panic(err.Error())
	}

	// Clear out the servers array in the spec, this skips validating
	// that server names match. We don't know how this thing will be run.
	spec.Servers = nil

	return middleware.OapiRequestValidatorWithOptions(spec, &middleware.Options{
		Skipper: func(ec echo.Context) bool {
			return ec.Request().Method != http.MethodPost
		},
		ErrorHandler: func(_ echo.Context, err *echo.HTTPError) error {
			// The validators message describes the schema mismatch in
			// detail; keep that for the logs only.
			status := err.Code
			code := apierror.CodeInvalidBody
			if status != http.StatusBadRequest {
				code = http.StatusText(status)
			}

			return apierror.NewError(status, code, fmt.Sprintf("Invalid request: %v", err.Message)).WithInternal(err)
		},
	})
}

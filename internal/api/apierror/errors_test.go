package apierror_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (*httptest.ResponseRecorder, bool) {
	ec := echo.New()
	rec := httptest.NewRecorder()
	ctx := ec.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	fellBack := false
	handler := apierror.GetHTTPErrorHandler(func(err error, c echo.Context) {
		fellBack = true
		ec.DefaultHTTPErrorHandler(err, c)
	})
	handler(err, ctx)

	return rec, fellBack
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func Test_APIError(t *testing.T) {
	err := apierror.NewError(http.StatusBadRequest, apierror.CodeInvalidURL, "Invalid or unsupported URL.").WithInternal(errors.New("secret"))
	rec, fellBack := handle(t, fmt.Errorf("wrapped: %w", err))

	assert.False(t, fellBack)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Invalid or unsupported URL.", body["message"])
	assert.Equal(t, "Invalid or unsupported URL.", body["detail"])
	assert.Equal(t, apierror.CodeInvalidURL, body["code"])
	assert.NotContains(t, rec.Body.String(), "secret")
}

func Test_APIError_Defaults(t *testing.T) {
	rec, _ := handle(t, apierror.APIError{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["message"])
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["code"])
}

func Test_HTTPError(t *testing.T) {
	rec, fellBack := handle(t, echo.NewHTTPError(http.StatusBadRequest, "bad things"))
	assert.False(t, fellBack)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "bad things", body["message"])
	assert.Equal(t, apierror.CodeInvalidBody, body["code"])

	rec, _ = handle(t, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusNotFound), decode(t, rec)["message"])
}

func Test_UnknownErrorFallsBack(t *testing.T) {
	rec, fellBack := handle(t, errors.New("something broke"))

	assert.True(t, fellBack)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

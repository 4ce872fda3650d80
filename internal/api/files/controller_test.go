package files_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/Grabber/internal/api/apierror"
	"github.com/hbomb79/Grabber/internal/api/files"
	"github.com/hbomb79/Grabber/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Locate(fileID string) (string, storage.Extension, error) {
	args := m.Called(fileID)
	return args.String(0), args.Get(1).(storage.Extension), args.Error(2)
}

func (m *mockStore) ScheduleDelete(path string) <-chan struct{} {
	args := m.Called(path)
	return args.Get(0).(chan struct{})
}

func newServer(store files.Store) *echo.Echo {
	ec := echo.New()
	ec.HTTPErrorHandler = apierror.GetHTTPErrorHandler(ec.DefaultHTTPErrorHandler)
	files.New(store).SetRoutes(ec.Group("/file"))
	return ec
}

func fetch(ec *echo.Echo, fileID string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ec.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file/"+fileID, nil))
	return rec
}

func Test_Fetch_ClaimHeldUntilDeleted(t *testing.T) {
	fileID := uuid.NewString()
	path := filepath.Join(t.TempDir(), fileID+".mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))

	deleted := make(chan struct{})
	store := &mockStore{}
	store.On("Locate", fileID).Return(path, storage.MP3, nil)
	store.On("ScheduleDelete", path).Return(deleted).Once()
	ec := newServer(store)

	rec := fetch(ec, fileID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="`+fileID+`.mp3"`, rec.Header().Get(echo.HeaderContentDisposition))

	// Deletion has not completed, a second fetch must not serve the file again
	assert.Equal(t, http.StatusNotFound, fetch(ec, fileID).Code)

	close(deleted)
	store.On("ScheduleDelete", path).Return(make(chan struct{}))
	assert.Eventually(t, func() bool {
		return fetch(ec, fileID).Code == http.StatusOK
	}, time.Second, 10*time.Millisecond, "claim should be released once deletion completes")

	store.AssertNumberOfCalls(t, "ScheduleDelete", 2)
}

func Test_Fetch_NotFoundReleasesClaim(t *testing.T) {
	fileID := uuid.NewString()
	store := &mockStore{}
	store.On("Locate", fileID).Return("", storage.Extension(""), storage.ErrNotFound)
	ec := newServer(store)

	assert.Equal(t, http.StatusNotFound, fetch(ec, fileID).Code)
	assert.Equal(t, http.StatusNotFound, fetch(ec, fileID).Code)
	store.AssertNumberOfCalls(t, "Locate", 2)
	store.AssertNotCalled(t, "ScheduleDelete", mock.Anything)
}

package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snapdir/snapdir/pkg/domain"
	"github.com/snapdir/snapdir/pkg/storage"
)

// region runRepositoryMock
type runRepositoryMock struct {
	mock.Mock
}

func (m *runRepositoryMock) FindLatest(ctx context.Context) (domain.BackupRun, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.BackupRun), args.Error(1)
}

func (m *runRepositoryMock) FindRecent(ctx context.Context, limit int) ([]domain.BackupRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.BackupRun), args.Error(1)
}

// endregion

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func TestLatestRunHandler_ServesLatestRun(t *testing.T) {
	repo := &runRepositoryMock{}
	repo.On("FindLatest", mock.Anything).Return(domain.BackupRun{
		Id:          "20190101_020304",
		Status:      domain.RunStatusSucceeded,
		StartedAt:   time.Date(2019, 1, 1, 2, 3, 4, 0, time.UTC),
		FilesCopied: 3,
	}, nil)

	w := httptest.NewRecorder()
	NewLatestRunHandler(discardLogger(), repo).ServeHTTP(w, httptest.NewRequest("GET", "/runs/latest", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "20190101_020304")
}

func TestLatestRunHandler_NotFoundBeforeFirstRun(t *testing.T) {
	repo := &runRepositoryMock{}
	repo.On("FindLatest", mock.Anything).Return(domain.BackupRun{}, storage.ErrNoRuns)

	w := httptest.NewRecorder()
	NewLatestRunHandler(discardLogger(), repo).ServeHTTP(w, httptest.NewRequest("GET", "/runs/latest", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHistoryHandler_ServesRecentRuns(t *testing.T) {
	repo := &runRepositoryMock{}
	repo.On("FindRecent", mock.Anything, recentRunsLimit).Return([]domain.BackupRun{
		{Id: "20190102_000000"},
		{Id: "20190101_000000"},
	}, nil)

	w := httptest.NewRecorder()
	NewRunHistoryHandler(discardLogger(), repo).ServeHTTP(w, httptest.NewRequest("GET", "/runs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "20190102_000000")
	assert.Contains(t, w.Body.String(), "20190101_000000")
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/appcontext"
	"github.com/snapdir/snapdir/pkg/domain"
	"github.com/snapdir/snapdir/pkg/storage"
)

const recentRunsLimit = 20

type RunRepository interface {
	FindLatest(context.Context) (domain.BackupRun, error)
	FindRecent(context.Context, int) ([]domain.BackupRun, error)
}

// RunHistoryHandler serves the most recent run records from storage.
type RunHistoryHandler struct {
	logger logrus.FieldLogger
	repo   RunRepository
}

func NewRunHistoryHandler(logger logrus.FieldLogger, repo RunRepository) *RunHistoryHandler {
	return &RunHistoryHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *RunHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	runs, err := h.repo.FindRecent(ctx, recentRunsLimit)
	if err != nil {
		logger.WithError(err).Error("Unable to query recent runs")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		logger.WithError(err).Error("Unable to encode runs response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// LatestRunHandler serves the most recent run record, 404 until the first
// run has been recorded.
type LatestRunHandler struct {
	logger logrus.FieldLogger
	repo   RunRepository
}

func NewLatestRunHandler(logger logrus.FieldLogger, repo RunRepository) *LatestRunHandler {
	return &LatestRunHandler{
		logger: logger,
		repo:   repo,
	}
}

func (h *LatestRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	run, err := h.repo.FindLatest(ctx)

	switch {
	case errors.Is(err, storage.ErrNoRuns):
		http.Error(w, "no runs recorded", http.StatusNotFound)
		return

	case err != nil:
		logger.WithError(err).Error("Unable to query latest run")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(run); err != nil {
		logger.WithError(err).Error("Unable to encode run response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/appcontext"
	"github.com/snapdir/snapdir/pkg/domain"
)

type RunStarter interface {
	RunNow(context.Context) (domain.BackupRun, error)
}

// RunHandler triggers a single backup. A request that arrives while a run
// is in flight is rejected with 409; the client may retry once the status
// endpoint reports the run finished.
type RunHandler struct {
	logger     logrus.FieldLogger
	controller RunStarter
}

func NewRunHandler(logger logrus.FieldLogger, controller RunStarter) *RunHandler {
	return &RunHandler{
		logger:     logger,
		controller: controller,
	}
}

func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	run, err := h.controller.RunNow(r.Context())

	switch {
	case errors.Is(err, domain.ErrBusy):
		http.Error(w, "a backup run is already in progress", http.StatusConflict)
		return

	case errors.Is(err, domain.ErrInvalidPath), errors.Is(err, domain.ErrNestedPath):
		logger.WithError(err).Warn("Backup request rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return

	case err != nil:
		logger.WithError(err).Error("Backup request failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(run); err != nil {
		logger.WithError(err).Error("Unable to encode run response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

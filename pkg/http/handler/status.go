package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/appcontext"
	"github.com/snapdir/snapdir/pkg/domain"
)

type StatusProvider interface {
	Status() domain.Status
}

// StatusHandler reports the schedule state, the next fire time and the
// last run summary. It is the only view a presentation layer needs.
type StatusHandler struct {
	logger     logrus.FieldLogger
	controller StatusProvider
}

func NewStatusHandler(logger logrus.FieldLogger, controller StatusProvider) *StatusHandler {
	return &StatusHandler{
		logger:     logger,
		controller: controller,
	}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.controller.Status()); err != nil {
		logger.WithError(err).Error("Unable to encode status response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

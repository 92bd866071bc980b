package serverfx

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/domain"
	"github.com/snapdir/snapdir/pkg/http/handler"
)

func StatusHandler(logger *logrus.Logger, controller *domain.JobController) *handler.StatusHandler {
	return handler.NewStatusHandler(logger, controller)
}

func RunHandler(logger *logrus.Logger, controller *domain.JobController) *handler.RunHandler {
	return handler.NewRunHandler(logger, controller)
}

func RunHistoryHandler(logger *logrus.Logger, repo handler.RunRepository) *handler.RunHistoryHandler {
	return handler.NewRunHistoryHandler(logger, repo)
}

func LatestRunHandler(logger *logrus.Logger, repo handler.RunRepository) *handler.LatestRunHandler {
	return handler.NewLatestRunHandler(logger, repo)
}

func RegisterHandlers(
	router *mux.Router,
	status *handler.StatusHandler,
	run *handler.RunHandler,
	history *handler.RunHistoryHandler,
	latest *handler.LatestRunHandler,
) {
	router.Handle("/status", status).Methods("GET")
	router.Handle("/run", run).Methods("POST")
	router.Handle("/runs", history).Methods("GET")
	router.Handle("/runs/latest", latest).Methods("GET")
}

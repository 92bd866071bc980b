package domain

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/appcontext"
	"github.com/snapdir/snapdir/pkg/logfile"
)

// How many per-file errors a run summary logs before truncating.
const maxErrorsInSummary = 10

type backupEngine interface {
	Run(context.Context, BackupJobConfig) BackupRun
}

type RunRepository interface {
	Create(context.Context, BackupRun) error
	FindLatest(context.Context) (BackupRun, error)
}

// SettingsStore receives the write-back of the last successful backup time.
type SettingsStore interface {
	RecordLastBackup(time.Time) error
}

type LogCleaner interface {
	Cleanup(policy logfile.RetentionPolicy, now time.Time) logfile.CleanupReport
}

type Status struct {
	ScheduleState string     `json:"schedule_state"`
	ScheduleMode  string     `json:"schedule_mode"`
	NextFire      *time.Time `json:"next_fire,omitempty"`
	Running       bool       `json:"running"`
	LastRun       *BackupRun `json:"last_run,omitempty"`
}

// JobController wires the scheduler, the engine and the log lifecycle
// together. It owns the schedule spec and the retention policy for the
// process lifetime; the engine owns a run only while executing it.
type JobController struct {
	logger logrus.FieldLogger

	validator *PathValidator
	engine    backupEngine
	scheduler *Scheduler
	repo      RunRepository
	settings  SettingsStore
	cleaner   LogCleaner

	job       BackupJobConfig
	retention logfile.RetentionPolicy

	mu      sync.Mutex
	spec    ScheduleSpec
	lastRun *BackupRun
}

func NewJobController(
	logger logrus.FieldLogger,
	validator *PathValidator,
	engine backupEngine,
	scheduler *Scheduler,
	repo RunRepository,
	settings SettingsStore,
	cleaner LogCleaner,
	job BackupJobConfig,
	retention logfile.RetentionPolicy,
) *JobController {
	return &JobController{
		logger: logger,

		validator: validator,
		engine:    engine,
		scheduler: scheduler,
		repo:      repo,
		settings:  settings,
		cleaner:   cleaner,

		job:       job,
		retention: retention,
	}
}

// RunNow executes a single backup immediately. While a run is already in
// flight the request is rejected with ErrBusy; the caller may retry.
func (c *JobController) RunNow(ctx context.Context) (BackupRun, error) {
	if err := c.scheduler.BeginManualRun(); err != nil {
		return BackupRun{}, err
	}
	defer c.scheduler.EndManualRun()

	return c.execute(ctx, "manual")
}

// StartSchedule arms the recurring timer with the given spec.
func (c *JobController) StartSchedule(spec ScheduleSpec) error {
	err := c.scheduler.Start(spec, func() {
		_, _ = c.execute(context.Background(), "scheduled")
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.spec = spec
	c.mu.Unlock()

	return nil
}

func (c *JobController) StopSchedule() {
	c.scheduler.Stop()
}

func (c *JobController) Reconfigure(spec ScheduleSpec) error {
	if err := c.scheduler.Reconfigure(spec); err != nil {
		return err
	}

	c.mu.Lock()
	c.spec = spec
	c.mu.Unlock()

	return nil
}

func (c *JobController) Status() Status {
	c.mu.Lock()
	spec := c.spec
	lastRun := c.lastRun
	c.mu.Unlock()

	if lastRun == nil {
		lastRun = c.loadLastRun()
	}

	state := c.scheduler.State()

	status := Status{
		ScheduleState: state.String(),
		ScheduleMode:  spec.Mode.String(),
		Running:       state == StateRunning,
		LastRun:       lastRun,
	}

	if next, ok := c.scheduler.NextFire(); ok {
		status.NextFire = &next
	}

	return status
}

// loadLastRun recovers the last persisted summary, so a restarted daemon
// reports its history instead of an empty status. The in-memory run takes
// precedence once one has executed in this process.
func (c *JobController) loadLastRun() *BackupRun {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := c.repo.FindLatest(ctx)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastRun == nil {
		c.lastRun = &run
	}

	return c.lastRun
}

// CleanupLogs prunes the log directory against the controller's retention
// policy. It runs at daemon start and after every run.
func (c *JobController) CleanupLogs(now time.Time) logfile.CleanupReport {
	report := c.cleaner.Cleanup(c.retention, now)

	if len(report.Deleted) > 0 || len(report.Compressed) > 0 || len(report.Errors) > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted":    len(report.Deleted),
			"compressed": len(report.Compressed),
			"errors":     len(report.Errors),
		}).Info("Log cleanup finished")
	}

	return report
}

func (c *JobController) execute(ctx context.Context, trigger string) (BackupRun, error) {
	ctx = appcontext.WithTrigger(ctx, trigger)
	ctx = appcontext.WithSource(ctx, c.job.SourcePath)

	logger := appcontext.LoggerFromContext(c.logger, ctx)

	// Paths may have been reconfigured since the previous run, so the
	// nested-path check runs before every copy, not just once.
	if err := c.validator.Validate(c.job.SourcePath, c.job.DestinationRoot); err != nil {
		logger.WithError(err).Error("Refusing to start backup")
		return BackupRun{}, err
	}

	run := c.engine.Run(ctx, c.job)
	run.Trigger = trigger

	c.mu.Lock()
	c.lastRun = &run
	c.mu.Unlock()

	if err := c.repo.Create(ctx, run); err != nil {
		logger.WithError(err).Error("Unable to persist run record")
	}

	c.logSummary(logger, run)

	if run.Status == RunStatusSucceeded {
		if err := c.settings.RecordLastBackup(run.StartedAt); err != nil {
			logger.WithError(err).Warn("Unable to record last backup time")
		}
	}

	c.CleanupLogs(time.Now())

	return run, nil
}

func (c *JobController) logSummary(logger logrus.FieldLogger, run BackupRun) {
	logger = logger.WithFields(logrus.Fields{
		"status":       run.Status.String(),
		"destination":  run.DestinationPath,
		"files_copied": run.FilesCopied,
		"bytes_copied": run.BytesCopied,
	})

	if len(run.Errors) == 0 {
		logger.Info("Run summary")
		return
	}

	logger.WithField("files_failed", run.FilesFailed).Warn("Run summary")

	for i, fileError := range run.Errors {
		if i == maxErrorsInSummary {
			logger.Warnf("... and %d more errors", len(run.Errors)-maxErrorsInSummary)
			break
		}

		logger.WithFields(logrus.Fields{
			"path": fileError.RelativePath,
			"kind": fileError.Kind.String(),
		}).Warn(fileError.Cause)
	}
}

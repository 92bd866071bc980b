package domainfx

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/snapdir/snapdir/internal/configfx"
	"github.com/snapdir/snapdir/pkg/domain"
	"github.com/snapdir/snapdir/pkg/logfile"
)

const (
	ConfigBackupInputPath  = "backup.input_path"
	ConfigBackupOutputPath = "backup.output_path"

	ConfigScheduleEnabled        = "schedule.enabled"
	ConfigScheduleMode           = "schedule.mode"
	ConfigScheduleDailyHour      = "schedule.daily_hour"
	ConfigScheduleDailyMinute    = "schedule.daily_minute"
	ConfigScheduleCustomInterval = "schedule.custom_interval_minutes"

	ConfigLogsDirectory   = "logs.directory"
	ConfigLogsRetention   = "logs.retention_days"
	ConfigLogsMaxFileSize = "logs.max_file_size_mb"
	ConfigLogsCompressOld = "logs.compress_old_logs"
)

func JobConfigProvider(v *viper.Viper) domain.BackupJobConfig {
	return domain.BackupJobConfig{
		SourcePath:      v.GetString(ConfigBackupInputPath),
		DestinationRoot: v.GetString(ConfigBackupOutputPath),
	}
}

func ScheduleSpecProvider(v *viper.Viper) domain.ScheduleSpec {
	return domain.ScheduleSpec{
		Mode:            domain.ParseScheduleMode(v.GetString(ConfigScheduleMode)),
		DailyHour:       v.GetInt(ConfigScheduleDailyHour),
		DailyMinute:     v.GetInt(ConfigScheduleDailyMinute),
		IntervalMinutes: v.GetInt(ConfigScheduleCustomInterval),
	}
}

func RetentionPolicyProvider(v *viper.Viper) logfile.RetentionPolicy {
	return logfile.RetentionPolicy{
		RetentionDays:    v.GetInt(ConfigLogsRetention),
		MaxFileSizeBytes: v.GetInt64(ConfigLogsMaxFileSize) * 1024 * 1024,
		CompressOld:      v.GetBool(ConfigLogsCompressOld),
	}
}

func LogWriter(v *viper.Viper, policy logfile.RetentionPolicy) (*logfile.Writer, error) {
	return logfile.NewWriter(v.GetString(ConfigLogsDirectory), policy.MaxFileSizeBytes)
}

// RegisterLogfileHook mirrors daemon log lines into the daily backup log
// files.
func RegisterLogfileHook(logger *logrus.Logger, writer *logfile.Writer) {
	logger.AddHook(logfile.NewHook(writer))
}

func LogRetention(logger *logrus.Logger, v *viper.Viper) (*logfile.Retention, domain.LogCleaner) {
	retention := logfile.NewRetention(logger, v.GetString(ConfigLogsDirectory))

	return retention, retention
}

func PathValidator() *domain.PathValidator {
	return domain.NewPathValidator()
}

func Engine(logger *logrus.Logger) *domain.Engine {
	return domain.NewEngine(logger, nil)
}

func Scheduler(logger *logrus.Logger) *domain.Scheduler {
	return domain.NewScheduler(logger)
}

func JobController(
	logger *logrus.Logger,
	validator *domain.PathValidator,
	engine *domain.Engine,
	scheduler *domain.Scheduler,
	repo domain.RunRepository,
	settings *configfx.SettingsStore,
	cleaner domain.LogCleaner,
	job domain.BackupJobConfig,
	policy logfile.RetentionPolicy,
) *domain.JobController {
	return domain.NewJobController(logger, validator, engine, scheduler, repo, settings, cleaner, job, policy)
}

// RunJobController performs startup log maintenance and, when the schedule
// is enabled in settings, arms the recurring timer for the process
// lifetime.
func RunJobController(
	lc fx.Lifecycle,
	logger *logrus.Logger,
	v *viper.Viper,
	controller *domain.JobController,
	spec domain.ScheduleSpec,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			controller.CleanupLogs(time.Now())

			if !v.GetBool(ConfigScheduleEnabled) || spec.Mode == domain.ScheduleDisabled {
				logger.Info("Automatic backups disabled")
				return nil
			}

			return controller.StartSchedule(spec)
		},
		OnStop: func(ctx context.Context) error {
			controller.StopSchedule()
			return nil
		},
	})
}

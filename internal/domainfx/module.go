package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(JobConfigProvider),
	fx.Provide(ScheduleSpecProvider),
	fx.Provide(RetentionPolicyProvider),
	fx.Provide(LogWriter),
	fx.Provide(LogRetention),
	fx.Provide(PathValidator),
	fx.Provide(Engine),
	fx.Provide(Scheduler),
	fx.Provide(JobController),
	fx.Invoke(RegisterLogfileHook),
	fx.Invoke(RunJobController),
)

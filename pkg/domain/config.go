package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// DestinationTimeFormat is the default timestamp appended to the source's
// base name to form the destination directory, e.g. "photos_20190101_020304".
const DestinationTimeFormat = "20060102_150405"

// BackupJobConfig is the immutable per-run input. SourcePath must exist and
// be a directory; DestinationRoot must not be a descendant of SourcePath.
type BackupJobConfig struct {
	SourcePath      string
	DestinationRoot string
	TimestampFormat string
}

func (c BackupJobConfig) timestampFormat() string {
	if c.TimestampFormat == "" {
		return DestinationTimeFormat
	}
	return c.TimestampFormat
}

type ScheduleMode int

const (
	ScheduleDisabled ScheduleMode = iota
	ScheduleHourly
	ScheduleDaily
	ScheduleCustom
)

func (m ScheduleMode) String() string {
	switch m {
	case ScheduleHourly:
		return "hourly"
	case ScheduleDaily:
		return "daily"
	case ScheduleCustom:
		return "custom"
	default:
		return "disabled"
	}
}

// ParseScheduleMode maps the configuration store's mode string to a
// ScheduleMode. Unknown values map to ScheduleDisabled.
func ParseScheduleMode(s string) ScheduleMode {
	switch s {
	case "hourly":
		return ScheduleHourly
	case "daily":
		return ScheduleDaily
	case "custom":
		return ScheduleCustom
	default:
		return ScheduleDisabled
	}
}

var ErrInvalidSchedule = errors.New("invalid schedule spec")

// ScheduleSpec is owned by the JobController and replaced wholesale on
// reconfiguration, never partially mutated while a run is active.
type ScheduleSpec struct {
	Mode ScheduleMode

	// Daily mode fires at DailyHour:DailyMinute local time.
	DailyHour   int
	DailyMinute int

	// Custom mode fires every IntervalMinutes; must be >= 1.
	IntervalMinutes int
}

func (s ScheduleSpec) Validate() error {
	switch s.Mode {
	case ScheduleDisabled, ScheduleHourly:
		return nil
	case ScheduleDaily:
		if s.DailyHour < 0 || s.DailyHour > 23 || s.DailyMinute < 0 || s.DailyMinute > 59 {
			return errors.Wrapf(ErrInvalidSchedule, "daily time %02d:%02d out of range", s.DailyHour, s.DailyMinute)
		}
		return nil
	case ScheduleCustom:
		if s.IntervalMinutes < 1 {
			return errors.Wrapf(ErrInvalidSchedule, "custom interval %d must be at least one minute", s.IntervalMinutes)
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidSchedule, "unknown mode %d", s.Mode)
	}
}

// cronSchedule translates the spec into a cron schedule used to compute
// fire times. Only the three fixed modes are supported.
func (s ScheduleSpec) cronSchedule() (cron.Schedule, error) {
	switch s.Mode {
	case ScheduleHourly:
		return cron.ParseStandard("0 * * * *")
	case ScheduleDaily:
		return cron.ParseStandard(fmt.Sprintf("%d %d * * *", s.DailyMinute, s.DailyHour))
	case ScheduleCustom:
		return cron.Every(time.Duration(s.IntervalMinutes) * time.Minute), nil
	default:
		return nil, errors.Wrapf(ErrInvalidSchedule, "mode %q has no fire times", s.Mode)
	}
}

// NextFire returns the first fire time strictly after now.
func (s ScheduleSpec) NextFire(now time.Time) (time.Time, error) {
	schedule, err := s.cronSchedule()
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(now), nil
}

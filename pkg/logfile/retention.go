package logfile

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/util"
)

// RetentionPolicy is re-evaluated against the log directory on every
// cleanup; nothing is persisted per file.
type RetentionPolicy struct {
	// RetentionDays of 0 means "delete everything but today".
	RetentionDays    int
	MaxFileSizeBytes int64
	CompressOld      bool
}

type CleanupError struct {
	Path  string `json:"path"`
	Cause string `json:"cause"`
}

type CleanupReport struct {
	Deleted    []string       `json:"deleted"`
	Compressed []string       `json:"compressed"`
	Errors     []CleanupError `json:"errors"`
}

// logFileName matches both active and compressed log files:
// backup_2019-01-01.log, backup_2019-01-01.2.log, backup_2019-01-01.log.zip.
var logFileName = regexp.MustCompile(`^backup_(\d{4}-\d{2}-\d{2})(?:\.\d+)?\.log(\.zip)?$`)

// Retention prunes the log directory. A file's age is taken from the date
// embedded in its name, never from filesystem mtime, which copies of the
// log directory would have altered.
type Retention struct {
	logger logrus.FieldLogger
	dir    string
}

func NewRetention(logger logrus.FieldLogger, dir string) *Retention {
	return &Retention{
		logger: logger,
		dir:    dir,
	}
}

func (r *Retention) Cleanup(policy RetentionPolicy, now time.Time) CleanupReport {
	var report CleanupReport

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.WithError(err).Error("Unable to read log directory")

		report.Errors = append(report.Errors, CleanupError{Path: r.dir, Cause: err.Error()})
		return report
	}

	today := midnight(now)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := logFileName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		date, err := time.ParseInLocation(fileDateLayout, m[1], now.Location())
		if err != nil {
			continue
		}

		// Spans crossing a DST transition are not whole multiples of 24h;
		// rounding keeps the age in calendar days.
		ageDays := int(math.Round(today.Sub(midnight(date)).Hours() / 24))
		compressed := m[2] != ""
		path := filepath.Join(r.dir, entry.Name())

		// The file currently open for writing is matched by today's date
		// and is never deleted or compressed, regardless of size.
		if ageDays < 1 {
			continue
		}

		switch {
		case ageDays > policy.RetentionDays:
			if err := os.Remove(path); err != nil {
				r.logger.WithError(err).WithField("file", path).Error("Unable to delete old log file")

				report.Errors = append(report.Errors, CleanupError{Path: path, Cause: err.Error()})
				continue
			}

			report.Deleted = append(report.Deleted, path)

		case policy.CompressOld && !compressed:
			if err := util.ZipFile(path+".zip", path); err != nil {
				r.logger.WithError(err).WithField("file", path).Error("Unable to compress old log file")

				report.Errors = append(report.Errors, CleanupError{Path: path, Cause: err.Error()})
				continue
			}

			if err := os.Remove(path); err != nil {
				report.Errors = append(report.Errors, CleanupError{Path: path, Cause: err.Error()})
				continue
			}

			report.Compressed = append(report.Compressed, path+".zip")
		}
	}

	return report
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

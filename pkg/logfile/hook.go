package logfile

import (
	"github.com/sirupsen/logrus"
)

// Hook mirrors logrus entries of Info level and above into the daily log
// files, so the process log and the on-disk log trail carry the same lines.
type Hook struct {
	writer *Writer
}

func NewHook(writer *Writer) *Hook {
	return &Hook{
		writer: writer,
	}
}

func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	var level Level

	switch entry.Level {
	case logrus.WarnLevel:
		level = LevelWarning
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		level = LevelError
	default:
		level = LevelInfo
	}

	return h.writer.Append(Entry{
		Timestamp: entry.Time,
		Level:     level,
		Message:   entry.Message,
	})
}

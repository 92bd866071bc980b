package logfile

import (
	"fmt"
	"time"
)

const lineTimeLayout = "2006-01-02 15:04:05"

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
}

// Format renders the entry as a single log line without trailing newline,
// e.g. "[2019-01-01 02:03:04] INFO: starting backup".
func (e Entry) Format() string {
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format(lineTimeLayout), e.Level, e.Message)
}

package domain

import "time"

type RunStatus int

const (
	// Run created, engine still copying
	RunStatusRunning RunStatus = iota

	// Every entry copied, errors empty
	RunStatusSucceeded

	// Destination root exists with partial content, some entries failed
	RunStatusPartiallyFailed

	// Destination root itself could not be created
	RunStatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusSucceeded:
		return "succeeded"
	case RunStatusPartiallyFailed:
		return "partially_failed"
	case RunStatusFailed:
		return "failed"
	default:
		return "running"
	}
}

type FileErrorKind int

const (
	FileErrorIO FileErrorKind = iota
	FileErrorPermissionDenied
	FileErrorNotFound
	FileErrorPathTooLong
)

func (k FileErrorKind) String() string {
	switch k {
	case FileErrorPermissionDenied:
		return "permission_denied"
	case FileErrorNotFound:
		return "not_found"
	case FileErrorPathTooLong:
		return "path_too_long"
	default:
		return "io_error"
	}
}

// FileError records one failed entry; the run continues past it.
type FileError struct {
	RelativePath string
	Kind         FileErrorKind
	Cause        string
}

// BackupRun represents one execution of the copy algorithm. It is mutated
// only by the engine executing it and is immutable once FinishedAt is set.
type BackupRun struct {
	// Id is derived from the run's start timestamp.
	Id string

	SourcePath      string
	DestinationPath string

	Trigger string

	StartedAt  time.Time
	FinishedAt *time.Time

	TotalFiles  int64
	TotalBytes  int64
	FilesCopied int64
	BytesCopied int64
	FilesFailed int64

	Status RunStatus

	Errors []FileError `db:"-"`
}

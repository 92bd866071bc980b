package domain

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snapdir/snapdir/pkg/appcontext"
	"github.com/snapdir/snapdir/pkg/logfile"
	"github.com/snapdir/snapdir/pkg/util"
)

// Observer receives progress and log events from a run. Callbacks are
// invoked synchronously from the engine's goroutine at most once per file,
// so implementations must not block.
type Observer interface {
	OnProgress(filesCopied, totalFiles, bytesCopied, totalBytes int64)
	OnLogLine(entry logfile.Entry)
}

// Engine performs one full-tree copy per Run call. Per-file failures never
// abort the traversal; they are aggregated into the run's error list.
type Engine struct {
	logger   logrus.FieldLogger
	observer Observer

	copyFile func(src, dst string) (int64, error)
}

func NewEngine(logger logrus.FieldLogger, observer Observer) *Engine {
	return &Engine{
		logger:   logger,
		observer: observer,

		copyFile: copyFileContents,
	}
}

// Run copies the source tree into a freshly named directory under the
// destination root. Re-running with the same config produces a new,
// differently timestamped destination; prior output is never touched.
// Cancellation is observed between entries, so its latency is bounded by
// one file's copy time.
func (e *Engine) Run(ctx context.Context, config BackupJobConfig) BackupRun {
	start := time.Now()

	run := BackupRun{
		Id:         start.Format(config.timestampFormat()),
		SourcePath: config.SourcePath,
		StartedAt:  start,
		Status:     RunStatusRunning,
	}

	ctx = appcontext.WithRunId(ctx, run.Id)
	logger := appcontext.LoggerFromContext(e.logger, ctx)

	logger.WithField("source", config.SourcePath).Info("Starting backup")

	run.TotalFiles, run.TotalBytes = e.countSource(config.SourcePath)
	e.emit(logfile.LevelInfo, "Found %d files (%s)", run.TotalFiles, util.FormatBytes(run.TotalBytes))

	name := filepath.Base(filepath.Clean(config.SourcePath)) + "_" + start.Format(config.timestampFormat())
	run.DestinationPath = filepath.Join(config.DestinationRoot, name)

	if err := os.MkdirAll(run.DestinationPath, 0o755); err != nil {
		logger.WithError(err).Error("Unable to create destination root")
		e.emit(logfile.LevelError, "Cannot create destination folder: %v", err)

		return e.finish(logger, run, RunStatusFailed)
	}

	canceled := false

	_ = filepath.WalkDir(config.SourcePath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			canceled = true
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(config.SourcePath, path)
		if relErr != nil {
			rel = path
		}

		if err != nil {
			e.record(logger, &run, rel, err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if rel == "." {
			return nil
		}

		target := filepath.Join(run.DestinationPath, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			// symlinks are not followed

		case d.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				e.record(logger, &run, rel, err)
				return filepath.SkipDir
			}

		default:
			n, err := e.copyFile(path, target)
			if err != nil {
				e.record(logger, &run, rel, err)
				return nil
			}

			run.FilesCopied++
			run.BytesCopied += n

			if e.observer != nil {
				e.observer.OnProgress(run.FilesCopied, run.TotalFiles, run.BytesCopied, run.TotalBytes)
			}
		}

		return nil
	})

	if canceled {
		logger.Warn("Backup canceled before the whole tree was processed")
		e.emit(logfile.LevelWarning, "Backup canceled")
	}

	status := RunStatusSucceeded
	if len(run.Errors) > 0 || (canceled && run.FilesCopied < run.TotalFiles) {
		status = RunStatusPartiallyFailed
	}

	return e.finish(logger, run, status)
}

func (e *Engine) finish(logger logrus.FieldLogger, run BackupRun, status RunStatus) BackupRun {
	now := time.Now()

	run.Status = status
	run.FinishedAt = &now
	run.FilesFailed = int64(len(run.Errors))

	logger.WithFields(logrus.Fields{
		"status":       run.Status.String(),
		"files_copied": run.FilesCopied,
		"bytes_copied": run.BytesCopied,
		"files_failed": run.FilesFailed,
		"duration":     now.Sub(run.StartedAt).String(),
	}).Info("Backup finished")

	e.emit(logfile.LevelInfo, "Backup finished: %s, %d files, %s",
		run.Status, run.FilesCopied, util.FormatBytes(run.BytesCopied))

	return run
}

func (e *Engine) record(logger logrus.FieldLogger, run *BackupRun, rel string, err error) {
	fileError := FileError{
		RelativePath: rel,
		Kind:         classifyCopyError(err),
		Cause:        err.Error(),
	}

	run.Errors = append(run.Errors, fileError)

	logger.WithError(err).WithFields(logrus.Fields{
		"path": rel,
		"kind": fileError.Kind.String(),
	}).Error("Unable to copy entry")

	e.emit(logfile.LevelError, "Error copying %s: %v", rel, err)
}

func (e *Engine) emit(level logfile.Level, format string, args ...interface{}) {
	if e.observer == nil {
		return
	}

	e.observer.OnLogLine(logfile.Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
	})
}

// countSource walks the tree once before copying so progress can be
// reported as a fraction. Entries that cannot be read are skipped here and
// surface as per-file errors during the copy pass instead.
func (e *Engine) countSource(source string) (files, bytes int64) {
	_ = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if info, err := d.Info(); err == nil {
			files++
			bytes += info.Size()
		}

		return nil
	})

	return files, bytes
}

func classifyCopyError(err error) FileErrorKind {
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return FileErrorPermissionDenied
	case stderrors.Is(err, fs.ErrNotExist):
		return FileErrorNotFound
	case stderrors.Is(err, syscall.ENAMETOOLONG):
		return FileErrorPathTooLong
	default:
		return FileErrorIO
	}
}

func copyFileContents(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, err
	}

	if err = out.Sync(); err != nil {
		out.Close()
		return n, err
	}

	if err = out.Close(); err != nil {
		return n, err
	}

	if info, err := os.Stat(src); err == nil {
		_ = os.Chmod(dst, info.Mode())
	}

	return n, nil
}

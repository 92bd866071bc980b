package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/snapdir/snapdir/pkg/domain"
)

const (
	runInsertQuery = `
		INSERT INTO runs (
			id, source_path, destination_path, trigger_kind,
			started_at, finished_at,
			total_files, total_bytes, files_copied, bytes_copied, files_failed,
			status
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	runSelectLatest = `
		SELECT
			id, source_path, destination_path, trigger_kind,
			started_at, finished_at,
			total_files, total_bytes, files_copied, bytes_copied, files_failed,
			status
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	runSelectRecent = `
		SELECT
			id, source_path, destination_path, trigger_kind,
			started_at, finished_at,
			total_files, total_bytes, files_copied, bytes_copied, files_failed,
			status
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`
)

// ErrNoRuns is returned by FindLatest before the first run has been
// recorded.
var ErrNoRuns = errors.New("no runs recorded")

// runRecord flattens domain.BackupRun for sqlx; the per-file error list is
// summarized into files_failed rather than persisted.
type runRecord struct {
	Id              string
	SourcePath      string
	DestinationPath string
	TriggerKind     string
	StartedAt       string
	FinishedAt      sql.NullString
	TotalFiles      int64
	TotalBytes      int64
	FilesCopied     int64
	BytesCopied     int64
	FilesFailed     int64
	Status          int
}

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{
		db: db,
	}
}

func (r *RunRepository) Create(ctx context.Context, run domain.BackupRun) error {
	record := toRecord(run)

	_, err := r.db.ExecContext(
		ctx,
		runInsertQuery,
		record.Id, record.SourcePath, record.DestinationPath, record.TriggerKind,
		record.StartedAt, record.FinishedAt,
		record.TotalFiles, record.TotalBytes, record.FilesCopied, record.BytesCopied, record.FilesFailed,
		record.Status,
	)

	return errors.Wrap(err, "unable to insert run")
}

func (r *RunRepository) FindLatest(ctx context.Context) (domain.BackupRun, error) {
	var record runRecord

	err := r.db.GetContext(ctx, &record, runSelectLatest)
	if err == sql.ErrNoRows {
		return domain.BackupRun{}, ErrNoRuns
	}
	if err != nil {
		return domain.BackupRun{}, errors.Wrap(err, "unable to query latest run")
	}

	return fromRecord(record)
}

func (r *RunRepository) FindRecent(ctx context.Context, limit int) ([]domain.BackupRun, error) {
	var records []runRecord

	err := r.db.SelectContext(ctx, &records, runSelectRecent, limit)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query recent runs")
	}

	runs := make([]domain.BackupRun, 0, len(records))
	for _, record := range records {
		run, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, nil
}

const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

func toRecord(run domain.BackupRun) runRecord {
	record := runRecord{
		Id:              run.Id,
		SourcePath:      run.SourcePath,
		DestinationPath: run.DestinationPath,
		TriggerKind:     run.Trigger,
		StartedAt:       run.StartedAt.Format(timeFormat),
		TotalFiles:      run.TotalFiles,
		TotalBytes:      run.TotalBytes,
		FilesCopied:     run.FilesCopied,
		BytesCopied:     run.BytesCopied,
		FilesFailed:     run.FilesFailed,
		Status:          int(run.Status),
	}

	if run.FinishedAt != nil {
		record.FinishedAt = sql.NullString{String: run.FinishedAt.Format(timeFormat), Valid: true}
	}

	return record
}

func fromRecord(record runRecord) (domain.BackupRun, error) {
	startedAt, err := parseTime(record.StartedAt)
	if err != nil {
		return domain.BackupRun{}, err
	}

	run := domain.BackupRun{
		Id:              record.Id,
		SourcePath:      record.SourcePath,
		DestinationPath: record.DestinationPath,
		Trigger:         record.TriggerKind,
		StartedAt:       startedAt,
		TotalFiles:      record.TotalFiles,
		TotalBytes:      record.TotalBytes,
		FilesCopied:     record.FilesCopied,
		BytesCopied:     record.BytesCopied,
		FilesFailed:     record.FilesFailed,
		Status:          domain.RunStatus(record.Status),
	}

	if record.FinishedAt.Valid {
		finishedAt, err := parseTime(record.FinishedAt.String)
		if err != nil {
			return domain.BackupRun{}, err
		}
		run.FinishedAt = &finishedAt
	}

	return run, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	return t, errors.Wrapf(err, "unable to parse stored time %q", s)
}

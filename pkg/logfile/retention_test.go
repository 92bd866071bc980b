package logfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func writeLogFile(t *testing.T, dir string, date time.Time, suffix string) string {
	t.Helper()

	path := filepath.Join(dir, "backup_"+date.Format(fileDateLayout)+suffix)
	require.Nil(t, os.WriteFile(path, []byte("[2019-01-01 00:00:00] INFO: line\n"), 0o644))

	return path
}

func TestRetention_Cleanup_DeletesOnlyFilesPastRetention(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2019, 3, 15, 14, 30, 0, 0, time.Local)

	today := writeLogFile(t, dir, now, ".log")
	fresh := writeLogFile(t, dir, now.AddDate(0, 0, -29), ".log")
	boundary := writeLogFile(t, dir, now.AddDate(0, 0, -30), ".log")
	expired := writeLogFile(t, dir, now.AddDate(0, 0, -31), ".log")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 30}, now)

	assert.Equal(t, []string{expired}, report.Deleted)
	assert.Empty(t, report.Errors)

	assert.FileExists(t, today)
	assert.FileExists(t, fresh)
	assert.FileExists(t, boundary)
	assert.NoFileExists(t, expired)
}

func TestRetention_Cleanup_CountsCalendarDaysAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.Nil(t, err)

	dir := t.TempDir()

	// the 31-day span back from April 10 crosses the March 10 spring-forward
	// and is one hour short of 31*24h
	now := time.Date(2019, 4, 10, 12, 0, 0, 0, loc)

	expired := writeLogFile(t, dir, now.AddDate(0, 0, -31), ".log")
	boundary := writeLogFile(t, dir, now.AddDate(0, 0, -30), ".log")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 30}, now)

	assert.Equal(t, []string{expired}, report.Deleted)
	assert.NoFileExists(t, expired)
	assert.FileExists(t, boundary)
}

func TestRetention_Cleanup_CompressesOldUncompressedFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2019, 3, 15, 14, 30, 0, 0, time.Local)

	old := writeLogFile(t, dir, now.AddDate(0, 0, -5), ".log")
	rolled := writeLogFile(t, dir, now.AddDate(0, 0, -5), ".2.log")
	alreadyZipped := writeLogFile(t, dir, now.AddDate(0, 0, -6), ".log.zip")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 30, CompressOld: true}, now)

	assert.ElementsMatch(t, []string{old + ".zip", rolled + ".zip"}, report.Compressed)
	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Errors)

	assert.NoFileExists(t, old)
	assert.NoFileExists(t, rolled)
	assert.FileExists(t, old+".zip")
	assert.FileExists(t, rolled+".zip")
	assert.FileExists(t, alreadyZipped)
}

func TestRetention_Cleanup_DeletesExpiredCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2019, 3, 15, 14, 30, 0, 0, time.Local)

	expired := writeLogFile(t, dir, now.AddDate(0, 0, -40), ".log.zip")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 30, CompressOld: true}, now)

	assert.Equal(t, []string{expired}, report.Deleted)
	assert.NoFileExists(t, expired)
}

func TestRetention_Cleanup_NeverTouchesTodaysFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2019, 3, 15, 23, 59, 0, 0, time.Local)

	today := writeLogFile(t, dir, now, ".log")
	rolled := writeLogFile(t, dir, now, ".3.log")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 0, CompressOld: true}, now)

	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Compressed)
	assert.FileExists(t, today)
	assert.FileExists(t, rolled)
}

func TestRetention_Cleanup_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2019, 3, 15, 14, 30, 0, 0, time.Local)

	foreign := filepath.Join(dir, "notes.txt")
	require.Nil(t, os.WriteFile(foreign, []byte("keep me"), 0o644))
	require.Nil(t, os.Mkdir(filepath.Join(dir, "backup_2018-01-01.log"), 0o755))

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 1}, now)

	assert.Empty(t, report.Deleted)
	assert.Empty(t, report.Errors)
	assert.FileExists(t, foreign)
	assert.DirExists(t, filepath.Join(dir, "backup_2018-01-01.log"))
}

func TestRetention_Cleanup_ReportsUnreadableDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	report := NewRetention(discardLogger(), dir).Cleanup(RetentionPolicy{RetentionDays: 30}, time.Now())

	require.Len(t, report.Errors, 1)
	assert.Equal(t, dir, report.Errors[0].Path)
}

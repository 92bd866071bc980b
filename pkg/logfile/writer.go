package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const fileDateLayout = "2006-01-02"

// Writer appends formatted entries to one log file per calendar day
// (backup_YYYY-MM-DD.log). When the active file would exceed the size cap,
// the writer rolls over to a numbered sibling (backup_YYYY-MM-DD.1.log and
// so on) for the remainder of the day.
//
// The file handle is held only for the duration of a single append, so
// concurrent readers never observe a locked file.
type Writer struct {
	dir     string
	maxSize int64

	mu   sync.Mutex
	date string
	seq  int
}

func NewWriter(dir string, maxSizeBytes int64) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "unable to create log directory")
	}

	return &Writer{
		dir:     dir,
		maxSize: maxSizeBytes,
	}, nil
}

func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := e.Timestamp.Format(fileDateLayout)

	// Calendar date change between appends closes out the previous day's
	// sequence implicitly: subsequent writes simply target the new name.
	if date != w.date {
		w.date = date
		w.seq = 0
	}

	line := e.Format() + "\n"

	if w.maxSize > 0 {
		for {
			info, err := os.Stat(w.currentPath())
			if err != nil {
				break
			}
			if info.Size() == 0 || info.Size()+int64(len(line)) <= w.maxSize {
				break
			}
			w.seq++
		}
	}

	f, err := os.OpenFile(w.currentPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "unable to open log file")
	}

	_, err = f.WriteString(line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return errors.Wrap(err, "unable to append log line")
}

// CurrentPath returns the file the next append would target, or an empty
// string if nothing has been written yet.
func (w *Writer) CurrentPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.date == "" {
		return ""
	}

	return w.currentPath()
}

func (w *Writer) currentPath() string {
	if w.seq == 0 {
		return filepath.Join(w.dir, fmt.Sprintf("backup_%s.log", w.date))
	}
	return filepath.Join(w.dir, fmt.Sprintf("backup_%s.%d.log", w.date, w.seq))
}

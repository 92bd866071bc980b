package domain

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidPath means the source is missing, not a directory, or
	// unreadable.
	ErrInvalidPath = errors.New("invalid source path")

	// ErrNestedPath means the destination, after resolving symlinks and
	// relative components, is the source or lies inside it. Copying into
	// such a destination would recurse without bound.
	ErrNestedPath = errors.New("destination is nested inside source")
)

// PathValidator gates every run. It is pure: no side effects, no I/O
// beyond stat calls. Paths may be reconfigured between runs, so the check
// runs on every invocation.
type PathValidator struct{}

func NewPathValidator() *PathValidator {
	return &PathValidator{}
}

func (*PathValidator) Validate(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(ErrInvalidPath, "%q: %v", source, err)
	}

	if !info.IsDir() {
		return errors.Wrapf(ErrInvalidPath, "%q is not a directory", source)
	}

	if _, err := os.ReadDir(source); err != nil {
		return errors.Wrapf(ErrInvalidPath, "%q is not readable: %v", source, err)
	}

	src, err := resolvePath(source)
	if err != nil {
		return errors.Wrapf(ErrInvalidPath, "%q: %v", source, err)
	}

	dst, err := resolvePath(destination)
	if err != nil {
		return errors.Wrapf(ErrInvalidPath, "%q: %v", destination, err)
	}

	if dst == src || strings.HasPrefix(dst, src+string(filepath.Separator)) {
		return errors.Wrapf(ErrNestedPath, "%q is within %q", destination, source)
	}

	return nil
}

// resolvePath returns the absolute, symlink-free form of path. The
// destination may not exist yet, so resolution climbs to the deepest
// existing ancestor and rejoins the remainder.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	remainder := ""
	for current := abs; ; {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}

		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}

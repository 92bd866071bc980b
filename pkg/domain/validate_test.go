package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathValidator_Validate_Success(t *testing.T) {
	source := t.TempDir()
	destination := t.TempDir()

	v := NewPathValidator()

	assert.Nil(t, v.Validate(source, destination))
}

func TestPathValidator_Validate_DestinationMayNotExistYet(t *testing.T) {
	source := t.TempDir()
	destination := filepath.Join(t.TempDir(), "not", "created", "yet")

	v := NewPathValidator()

	assert.Nil(t, v.Validate(source, destination))
}

func TestPathValidator_Validate_MissingSource(t *testing.T) {
	source := filepath.Join(t.TempDir(), "does_not_exist")
	destination := t.TempDir()

	v := NewPathValidator()

	err := v.Validate(source, destination)

	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestPathValidator_Validate_SourceIsFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "file.txt")
	require.Nil(t, os.WriteFile(source, []byte("data"), 0o644))

	v := NewPathValidator()

	err := v.Validate(source, t.TempDir())

	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestPathValidator_Validate_DestinationEqualsSource(t *testing.T) {
	source := t.TempDir()

	v := NewPathValidator()

	err := v.Validate(source, source)

	assert.True(t, errors.Is(err, ErrNestedPath))
}

func TestPathValidator_Validate_DestinationInsideSource(t *testing.T) {
	source := t.TempDir()
	destination := filepath.Join(source, "backups")

	v := NewPathValidator()

	err := v.Validate(source, destination)

	assert.True(t, errors.Is(err, ErrNestedPath))
}

func TestPathValidator_Validate_DestinationInsideSourceNotYetCreated(t *testing.T) {
	source := t.TempDir()
	destination := filepath.Join(source, "deep", "backups")

	v := NewPathValidator()

	err := v.Validate(source, destination)

	assert.True(t, errors.Is(err, ErrNestedPath))
}

func TestPathValidator_Validate_SymlinkedDestinationInsideSource(t *testing.T) {
	source := t.TempDir()
	other := t.TempDir()

	link := filepath.Join(other, "link")
	require.Nil(t, os.Symlink(source, link))

	v := NewPathValidator()

	err := v.Validate(source, filepath.Join(link, "backups"))

	assert.True(t, errors.Is(err, ErrNestedPath))
}

func TestPathValidator_Validate_SiblingWithCommonPrefix(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "data")
	destination := filepath.Join(base, "data_backups")

	require.Nil(t, os.Mkdir(source, 0o755))
	require.Nil(t, os.Mkdir(destination, 0o755))

	v := NewPathValidator()

	assert.Nil(t, v.Validate(source, destination))
}

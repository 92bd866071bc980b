package util

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
)

// ZipFile writes a zip archive at outfile containing the single given file
// under its base name. The archive is written to a temporary sibling first
// so a failure never leaves a truncated .zip behind.
func ZipFile(outfile, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(outfile), filepath.Base(outfile)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)

	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		tmp.Close()
		return err
	}

	if _, err = io.Copy(w, src); err != nil {
		tmp.Close()
		return err
	}

	if err = zw.Close(); err != nil {
		tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), outfile)
}

// Package archive packs staging tree into EPUB container and reads it back.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsafePath is returned for archive entries which would escape
// extraction directory.
var ErrUnsafePath = errors.New("unsafe entry path")

// WalkFunc is called for each matching file entry. If an error is returned,
// processing stops.
type WalkFunc func(file *zip.File) error

// Walk calls fn for every file entry of archive whose name starts with
// prefix, in archive order. Archive with absolute or traversing entry names is
// rejected.
func Walk(archive, prefix string, fn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("unable to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("entry %q: %w", f.Name, ErrUnsafePath)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns names of all entries including directories in archive
// order.
func Entries(archive string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("unable to open archive: %w", err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return nil, fmt.Errorf("entry %q: %w", f.Name, ErrUnsafePath)
		}
		names = append(names, f.Name)
	}
	return names, nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

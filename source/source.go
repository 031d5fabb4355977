// Package source discovers input files and classifies them for composition.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFile is returned when source path exists but is not a regular file.
var ErrNotFile = errors.New("not a regular file")

// Source is a single input file. Rel is slash separated location relative to
// the input root, it defines where file lands in the staging tree.
type Source struct {
	Path string
	Rel  string
	Name string
	Ext  string
}

// New builds Source for path located under root.
func New(root, path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("unable to access source: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return Source{}, fmt.Errorf("source %q: %w", path, ErrNotFile)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Source{}, fmt.Errorf("source %q is not under %q: %w", path, root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return Source{}, fmt.Errorf("source %q is outside of %q", path, root)
	}

	name := filepath.Base(path)
	return Source{
		Path: path,
		Rel:  rel,
		Name: name,
		Ext:  strings.TrimPrefix(filepath.Ext(name), "."),
	}, nil
}

func (s Source) String() string {
	return s.Rel
}

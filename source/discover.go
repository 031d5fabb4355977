package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Files holds discovered sources grouped by their role, each group in
// discovery order.
type Files struct {
	Root    string
	Content []ContentSource
	Styles  []Source
	Static  []Source
}

// Len returns total number of discovered sources.
func (f *Files) Len() int {
	return len(f.Content) + len(f.Styles) + len(f.Static)
}

// Discover collects sources from path. When path is a directory it is walked
// recursively, entries at each level processed in lexical order and hidden
// entries skipped. When path is a file its directory becomes the root. Files
// with names listed in exclude are never returned.
func Discover(path string, exclude ...string) (*Files, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to access input: %w", err)
	}

	files := &Files{}
	if !fi.IsDir() {
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("input %q: %w", path, ErrNotFile)
		}
		files.Root = filepath.Dir(path)
		if err := files.add(path); err != nil {
			return nil, err
		}
		return files, nil
	}

	files.Root = path
	if err := files.walk(path, exclude); err != nil {
		return nil, err
	}
	return files, nil
}

func (f *Files) walk(dir string, exclude []string) error {
	// os.ReadDir returns entries sorted by name
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read directory: %w", err)
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || slices.Contains(exclude, name) {
			continue
		}
		full := filepath.Join(dir, name)
		if entry.IsDir() {
			subdirs = append(subdirs, full)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if err := f.add(full); err != nil {
			return err
		}
	}
	for _, sub := range subdirs {
		if err := f.walk(sub, exclude); err != nil {
			return err
		}
	}
	return nil
}

func (f *Files) add(path string) error {
	src, err := New(f.Root, path)
	if err != nil {
		return err
	}
	switch {
	case IsContent(src.Ext):
		cs, err := NewContent(src)
		if err != nil {
			return err
		}
		f.Content = append(f.Content, cs)
	case src.Ext == "css":
		f.Styles = append(f.Styles, src)
	default:
		f.Static = append(f.Static, src)
	}
	return nil
}

// LookupContent finds discovered content document by its location relative
// to root.
func (f *Files) LookupContent(rel string) (ContentSource, bool) {
	rel = filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	for _, c := range f.Content {
		if c.Rel == rel {
			return c, true
		}
	}
	return ContentSource{}, false
}

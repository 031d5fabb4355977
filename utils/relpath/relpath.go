// Package relpath computes relative references between locations of the
// staging tree. Results always use forward slashes so they can be used as
// href values directly.
package relpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoRelation is returned when relative path between two locations cannot
// be expressed.
var ErrNoRelation = errors.New("paths have no relation")

// Rel returns path to "to" relative to directory "fromDir". Both paths must
// be either absolute or relative.
func Rel(fromDir, to string) (string, error) {
	if filepath.IsAbs(fromDir) != filepath.IsAbs(to) {
		return "", fmt.Errorf("%w: %q and %q", ErrNoRelation, fromDir, to)
	}

	base, target := components(fromDir), components(to)

	common := 0
	for common < len(base) && common < len(target) && base[common] == target[common] {
		common++
	}

	parts := make([]string, 0, len(base)-common+len(target)-common)
	for _, c := range base[common:] {
		if c == ".." {
			// we do not know what is above
			return "", fmt.Errorf("%w: %q climbs above parent reference in %q", ErrNoRelation, to, fromDir)
		}
		parts = append(parts, "..")
	}
	parts = append(parts, target[common:]...)

	if len(parts) == 0 {
		return ".", nil
	}
	return strings.Join(parts, "/"), nil
}

// RelFromFile is like Rel but takes location of a file, its directory is
// used as a base.
func RelFromFile(fromFile, to string) (string, error) {
	return Rel(filepath.Dir(fromFile), to)
}

func components(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." {
		return nil
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, c := range parts {
		if len(c) != 0 {
			out = append(out, c)
		}
	}
	return out
}

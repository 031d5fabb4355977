package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
)

const mimetypeName = "mimetype"

// Directories packed after mimetype, in this order.
var topDirs = []string{"META-INF", "OEBPS"}

// Pack writes EPUB container out from staging tree at root. Entry "mimetype"
// goes first and is stored uncompressed, everything else is deflated with
// files preceding subdirectories on every level.
func Pack(root, out string, log *zap.Logger) (err error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("archive")

	f, err := create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to finalize archive: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	if err := writeMimetype(zw, filepath.Join(root, mimetypeName)); err != nil {
		return err
	}
	for _, dir := range topDirs {
		if err := addDir(zw, root, dir, log); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close archive: %w", err)
	}
	log.Debug("Archive packed", zap.String("file", out))
	return nil
}

// create opens output file, removing existing file and retrying once on
// failure.
func create(name string) (*os.File, error) {
	f, err := os.Create(name)
	if err == nil {
		return f, nil
	}
	if rerr := os.Remove(name); rerr != nil && !os.IsNotExist(rerr) {
		return nil, fmt.Errorf("unable to create archive (%s): %w", name, err)
	}
	f, err = os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("unable to create archive (%s): %w", name, err)
	}
	return f, nil
}

func writeMimetype(zw *zip.Writer, src string) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   mimetypeName,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("unable to write mimetype: %w", err)
	}
	return copyFrom(w, src)
}

// addDir adds directory entry for rel and its content recursively.
func addDir(zw *zip.Writer, root, rel string, log *zap.Logger) error {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("unable to read staging directory: %w", err)
	}
	if _, err := zw.CreateHeader(&zip.FileHeader{Name: rel + "/", Method: zip.Store}); err != nil {
		return fmt.Errorf("unable to add directory %s: %w", rel, err)
	}

	// os.ReadDir returns entries sorted by name
	var dirs []string
	for _, e := range entries {
		name := path.Join(rel, e.Name())
		if e.IsDir() {
			dirs = append(dirs, name)
			continue
		}
		if !e.Type().IsRegular() {
			log.Debug("Skipping irregular file", zap.String("file", name))
			continue
		}
		if err := addFile(zw, root, name); err != nil {
			return err
		}
	}
	slices.Sort(dirs)
	for _, d := range dirs {
		if err := addDir(zw, root, d, log); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("unable to add %s: %w", rel, err)
	}
	return copyFrom(w, filepath.Join(root, filepath.FromSlash(rel)))
}

func copyFrom(w io.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", src, err)
	}
	defer in.Close()
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("unable to archive %s: %w", src, err)
	}
	return nil
}

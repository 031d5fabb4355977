package compose

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/beevik/etree"
)

const (
	mimetypeContent = "application/epub+zip"
	metaInfDir      = "META-INF"
	oebpsDir        = "OEBPS"
	packageName     = "package.opf"
	navigationName  = "navigation.xhtml"
)

// Staging is on-disk directory tree mirroring final package layout. It is
// owned by a single composition run and must be closed by the caller.
type Staging struct {
	Root string
}

// NewStaging creates staging directory with mimetype, container descriptor
// and empty content directory.
func NewStaging() (*Staging, error) {
	root, err := os.MkdirTemp("", "repub-")
	if err != nil {
		return nil, fmt.Errorf("unable to create staging directory: %w", err)
	}
	s := &Staging{Root: root}

	if err := s.init(); err != nil {
		os.RemoveAll(root)
		return nil, err
	}
	return s, nil
}

func (s *Staging) init() error {
	if err := os.WriteFile(filepath.Join(s.Root, "mimetype"), []byte(mimetypeContent), 0644); err != nil {
		return fmt.Errorf("unable to write mimetype: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.Root, metaInfDir), 0755); err != nil {
		return fmt.Errorf("unable to create %s: %w", metaInfDir, err)
	}
	if err := os.MkdirAll(s.Content(), 0755); err != nil {
		return fmt.Errorf("unable to create %s: %w", oebpsDir, err)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", path.Join(oebpsDir, packageName))
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")

	doc.Indent(2)
	if err := doc.WriteToFile(filepath.Join(s.Root, metaInfDir, "container.xml")); err != nil {
		return fmt.Errorf("unable to write container: %w", err)
	}
	return nil
}

// Content returns content directory.
func (s *Staging) Content() string {
	return filepath.Join(s.Root, oebpsDir)
}

// PackagePath returns location of the package document.
func (s *Staging) PackagePath() string {
	return filepath.Join(s.Content(), packageName)
}

// NavigationPath returns location of the navigation document.
func (s *Staging) NavigationPath() string {
	return filepath.Join(s.Content(), navigationName)
}

// Place returns location in content directory for slash separated relative
// path making sure its directory exists.
func (s *Staging) Place(rel string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("unable to place %q outside of staging tree", rel)
	}
	dst := filepath.Join(s.Content(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("unable to create staging directory: %w", err)
	}
	return dst, nil
}

// Exists reports whether anything is already placed at rel location in
// content directory.
func (s *Staging) Exists(rel string) bool {
	_, err := os.Lstat(filepath.Join(s.Content(), filepath.FromSlash(rel)))
	return err == nil
}

// Copy places file src at rel location in content directory.
func (s *Staging) Copy(src, rel string) (string, error) {
	dst, err := s.Place(rel)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("unable to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("unable to create staged file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("unable to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("unable to close staged file: %w", err)
	}
	return dst, nil
}

// Close removes staging directory unless preserve is requested.
func (s *Staging) Close(preserve bool) error {
	if s == nil || preserve {
		return nil
	}
	if err := os.RemoveAll(s.Root); err != nil {
		return fmt.Errorf("unable to remove staging directory: %w", err)
	}
	return nil
}

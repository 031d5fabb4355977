package compose

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"repub/archive"
	"repub/config"
)

const epubExt = ".epub"

// Values holds variables available for output name template expansion.
type Values struct {
	Context  string
	Title    string
	Creator  string
	Language string
	BookID   string
	Source   string
}

func (c *Composer) expandTemplate(name config.TemplateFieldName, field string) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:  string(name),
		Title:    c.book.Title,
		Creator:  c.book.Creator,
		Language: c.book.Language,
		BookID:   c.book.BookID,
		Source:   filepath.Base(c.files.Root),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OutputPath returns location of resulting archive in directory dst. Name
// comes from configured template (which may contain subdirectories) or from
// book title.
func (c *Composer) OutputPath(dst string) string {
	if len(c.doc.OutputNameTemplate) > 0 {
		expanded, err := c.expandTemplate(config.OutputNameTemplateFieldName, c.doc.OutputNameTemplate)
		if err != nil {
			c.log.Warn("Unable to prepare output filename", zap.Error(err))
		} else if segments := splitPath(filepath.FromSlash(expanded)); len(segments) > 0 {
			parts := make([]string, 0, len(segments)+1)
			parts = append(parts, dst)
			for _, s := range segments[:len(segments)-1] {
				parts = append(parts, c.cleanSegment(s))
			}
			parts = append(parts, c.cleanSegment(segments[len(segments)-1])+epubExt)
			return filepath.Join(parts...)
		}
	}
	return filepath.Join(dst, c.cleanSegment(c.book.Title)+epubExt)
}

func splitPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)
	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func (c *Composer) cleanSegment(segment string) string {
	if c.doc.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}

// Archive packs staging tree into output archive in directory dst and returns
// its location.
func (c *Composer) Archive(dst string) (string, error) {
	if err := c.expect(StagePackageRendered, StageArchived); err != nil {
		return "", err
	}

	out := c.OutputPath(dst)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	c.log.Info("Archiving EPUB", zap.String("output", out))

	if !c.doc.FixZip {
		if err := archive.Pack(c.staging.Root, out, c.log); err != nil {
			return "", err
		}
		c.stage = StageArchived
		return out, nil
	}

	tmp, err := os.CreateTemp("", "repub-*"+epubExt)
	if err != nil {
		return "", fmt.Errorf("unable to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := archive.Pack(c.staging.Root, tmpName, c.log); err != nil {
		return "", err
	}
	if err := archive.FixDataDescriptors(tmpName, out); err != nil {
		return "", err
	}
	c.stage = StageArchived
	return out, nil
}

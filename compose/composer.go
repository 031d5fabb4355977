// Package compose assembles staged content into EPUB package: it keeps
// registry of staged items, builds navigation and package documents and
// archives staging tree. Composition runs in strictly ordered stages.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"repub/config"
	"repub/css"
	"repub/markup"
	"repub/media"
	"repub/source"
	"repub/toc"
)

// Composer drives single composition run. It owns neither staging tree nor
// discovered sources, caller is responsible for closing staging.
type Composer struct {
	files    *source.Files
	book     *config.Book
	doc      *config.DocumentConfig
	staging  *Staging
	registry *Registry
	toc      toc.Tree
	markup   *markup.Converter
	css      *css.Parser
	stage    Stage
	now      func() time.Time
	log      *zap.Logger
}

// New creates composer. Book configuration is expected to be completed.
func New(files *source.Files, book *config.Book, doc *config.DocumentConfig, staging *Staging, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("compose")
	return &Composer{
		files:    files,
		book:     book,
		doc:      doc,
		staging:  staging,
		registry: NewRegistry(),
		markup:   markup.NewConverter(log),
		css:      css.NewParser(log),
		now:      time.Now,
		log:      log,
	}
}

// Stage returns last completed stage.
func (c *Composer) Stage() Stage {
	return c.stage
}

// Registry returns registry of staged items.
func (c *Composer) Registry() *Registry {
	return c.registry
}

// TOC returns table of contents collected from content documents.
func (c *Composer) TOC() *toc.Tree {
	return &c.toc
}

func (c *Composer) expect(want, next Stage) error {
	if c.stage != want {
		return fmt.Errorf("%w: %s requires %s, composer is at %s", ErrStageOrder, next, want, c.stage)
	}
	return nil
}

// Compose runs all stages in order and returns location of resulting
// archive in directory dst.
func (c *Composer) Compose(ctx context.Context, dst string) (string, error) {
	steps := []struct {
		name string
		run  func() error
	}{
		{"style sheets", c.StageStyles},
		{"static files", c.StageStatic},
		{"content", c.StageContent},
		{"cover", c.StageCover},
		{"navigation", c.RenderNavigation},
		{"package", c.RenderPackage},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.log.Debug("Composition stage", zap.String("stage", step.name))
		if err := step.run(); err != nil {
			return "", fmt.Errorf("unable to compose %s: %w", step.name, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.Archive(dst)
}

// checkIgnores validates configured ignore patterns.
func (c *Composer) checkIgnores() error {
	for _, p := range c.book.Ignores {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return fmt.Errorf("bad ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// ignored reports whether source at slash separated location relative to the
// input root matches any ignore pattern. Pattern naming a directory ignores
// everything under it.
func (c *Composer) ignored(rel string) bool {
	for _, p := range c.book.Ignores {
		p = strings.TrimSuffix(filepath.ToSlash(p), "/")
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// classify returns media type for optional artifact, unsupported artifacts
// are reported and skipped.
func (c *Composer) classify(src *source.Source, what string) (media.MediaType, bool) {
	mt, err := media.FromPath(src.Path)
	if err == nil {
		return mt, true
	}
	var uerr *media.UnsupportedError
	if errors.As(err, &uerr) {
		c.log.Warn("Unsupported "+what+", skipping", zap.String("file", src.Rel), zap.String("ext", uerr.Ext))
	} else {
		c.log.Warn("Unable to classify "+what+", skipping", zap.String("file", src.Rel), zap.Error(err))
	}
	return 0, false
}

// StageStyles copies style sheets into staging tree.
func (c *Composer) StageStyles() error {
	if err := c.expect(StageInit, StageStyleStaged); err != nil {
		return err
	}
	if err := c.checkIgnores(); err != nil {
		return err
	}

	for i := range c.files.Styles {
		src := &c.files.Styles[i]
		if c.ignored(src.Rel) {
			c.log.Debug("Ignoring style sheet", zap.String("file", src.Rel))
			continue
		}
		if _, ok := c.classify(src, "style sheet"); !ok {
			continue
		}

		data, err := os.ReadFile(src.Path)
		if err != nil {
			return fmt.Errorf("unable to read style sheet: %w", err)
		}
		dst, err := c.staging.Copy(src.Path, src.Rel)
		if err != nil {
			return err
		}
		item, err := c.registry.Register(BucketCSS, src, dst)
		if err != nil {
			return err
		}

		sheet := c.css.Parse(data, src.Rel)
		if sheet.HasRemote() {
			item.Properties.Add(media.PropertyRemoteResources)
		}
		for _, ref := range sheet.Local() {
			if _, err := os.Stat(filepath.Join(filepath.Dir(src.Path), filepath.FromSlash(ref))); err == nil {
				continue
			}
			if family := sheet.FontFamily(ref); family != "" {
				c.log.Warn("Style sheet references missing font", zap.String("file", src.Rel), zap.String("url", ref), zap.String("family", family))
				continue
			}
			c.log.Warn("Style sheet references missing resource", zap.String("file", src.Rel), zap.String("url", ref))
		}
	}

	c.stage = StageStyleStaged
	return nil
}

// StageStatic copies static assets into staging tree.
func (c *Composer) StageStatic() error {
	if err := c.expect(StageStyleStaged, StageStaticStaged); err != nil {
		return err
	}

	for i := range c.files.Static {
		src := &c.files.Static[i]
		if c.ignored(src.Rel) {
			c.log.Debug("Ignoring static file", zap.String("file", src.Rel))
			continue
		}
		mt, ok := c.classify(src, "static file")
		if !ok {
			continue
		}
		if detected, err := media.Sniff(src.Path, mt); err != nil {
			c.log.Warn("Unable to check static file content", zap.String("file", src.Rel), zap.Error(err))
		} else if detected != "" {
			c.log.Warn("Static file content does not match its extension", zap.String("file", src.Rel),
				zap.Stringer("expected", mt), zap.String("detected", detected))
		}

		dst, err := c.staging.Copy(src.Path, src.Rel)
		if err != nil {
			return err
		}
		if _, err := c.registry.Register(BucketStatic, src, dst); err != nil {
			return err
		}
	}

	c.stage = StageStaticStaged
	return nil
}

// contentSources returns content documents in reading order. Configured
// sequence acts as inclusion list.
func (c *Composer) contentSources() ([]source.ContentSource, error) {
	var out []source.ContentSource
	if len(c.book.Sequence) == 0 {
		for _, cs := range c.files.Content {
			if c.ignored(cs.Rel) {
				c.log.Debug("Ignoring content", zap.String("file", cs.Rel))
				continue
			}
			out = append(out, cs)
		}
		return out, nil
	}

	for _, rel := range c.book.Sequence {
		cs, ok := c.files.LookupContent(rel)
		if !ok {
			return nil, fmt.Errorf("sequence entry %q is not a content document: %w", rel, os.ErrNotExist)
		}
		if c.ignored(cs.Rel) {
			c.log.Warn("Sequence entry is ignored", zap.String("file", cs.Rel))
			continue
		}
		out = append(out, cs)
	}
	return out, nil
}

// StageContent converts or copies content documents into staging tree
// collecting table of contents.
func (c *Composer) StageContent() error {
	if err := c.expect(StageStaticStaged, StageContentStaged); err != nil {
		return err
	}

	list, err := c.contentSources()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.log.Warn("No content documents to compose")
	}

	for i := range list {
		cs := &list[i]
		cfg := c.book.Content(cs.Rel)

		var item *ComposedItem
		switch cs.Conversion {
		case source.MarkdownToXHTML:
			item, err = c.convertMarkdown(cs, cfg)
		case source.NoConversion:
			item, err = c.copyMarkup(cs)
		default:
			err = fmt.Errorf("unknown conversion %s", cs.Conversion)
		}
		if err != nil {
			return fmt.Errorf("unable to stage %s: %w", cs.Rel, err)
		}
		if cfg != nil {
			item.Properties.Add(cfg.Properties...)
		}
		c.log.Debug("Content staged", zap.String("file", cs.Rel), zap.String("id", item.ID), zap.Stringer("properties", item.Properties))
	}

	c.stage = StageContentStaged
	return nil
}

func (c *Composer) convertMarkdown(cs *source.ContentSource, cfg *config.ContentConfig) (*ComposedItem, error) {
	text, err := c.markup.ReadText(cs.Path)
	if err != nil {
		return nil, err
	}
	rendered, err := c.markup.Markdown(text)
	if err != nil {
		return nil, err
	}
	frag, err := markup.ParseFragment(rendered)
	if err != nil {
		return nil, err
	}

	dst, err := c.staging.Place(cs.Target())
	if err != nil {
		return nil, err
	}
	if err := frag.Headings(func(level int, title string) (string, error) {
		return c.toc.Push(level, title, dst)
	}); err != nil {
		return nil, err
	}
	body, err := frag.Render()
	if err != nil {
		return nil, err
	}

	var only []string
	if cfg != nil {
		only = cfg.Styles
	}
	styles, err := c.registry.StyleLinks(dst, only)
	if err != nil {
		return nil, err
	}

	doc := &markup.Document{Title: cs.Name, Language: c.book.Language, Styles: styles, Body: body}
	out, err := doc.Execute()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return nil, fmt.Errorf("unable to write content document: %w", err)
	}

	item, err := c.registry.Register(BucketContents, &cs.Source, dst)
	if err != nil {
		return nil, err
	}
	item.Properties.Add(frag.Properties()...)
	return item, nil
}

func (c *Composer) copyMarkup(cs *source.ContentSource) (*ComposedItem, error) {
	dst, err := c.staging.Copy(cs.Path, cs.Target())
	if err != nil {
		return nil, err
	}
	item, err := c.registry.Register(BucketContents, &cs.Source, dst)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("unable to read staged document: %w", err)
	}
	props, err := markup.DetectProperties(data)
	if err != nil {
		c.log.Warn("Unable to detect content properties", zap.String("file", cs.Rel), zap.Error(err))
	}
	item.Properties.Add(props...)
	return item, nil
}

// StageCover marks configured cover image. Cover which cannot be used is
// dropped with a warning.
func (c *Composer) StageCover() error {
	if err := c.expect(StageContentStaged, StageCoverStaged); err != nil {
		return err
	}
	if err := c.stageCover(); err != nil {
		return err
	}
	c.stage = StageCoverStaged
	return nil
}

func (c *Composer) stageCover() error {
	if len(c.book.CoverImage) == 0 {
		return nil
	}

	path := filepath.FromSlash(c.book.CoverImage)
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.files.Root, path)
	}
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		c.log.Warn("Cover image not found, ignoring", zap.String("file", c.book.CoverImage))
		return nil
	}

	src := source.Source{
		Path: path,
		Name: filepath.Base(path),
		Ext:  strings.TrimPrefix(filepath.Ext(path), "."),
	}
	rel, err := filepath.Rel(c.files.Root, path)
	inside := err == nil && filepath.IsLocal(rel)
	if inside {
		src.Rel = filepath.ToSlash(rel)
	} else {
		src.Rel = c.freeName("cover", filepath.Ext(path))
	}

	mt, ok := c.classify(&src, "cover image")
	if !ok {
		return nil
	}
	if mt.Family() != media.FamilyImage {
		c.log.Warn("Cover is not an image, ignoring", zap.String("file", src.Rel), zap.Stringer("type", mt))
		return nil
	}

	if inside {
		if item := c.registry.FindSource(BucketStatic, src.Rel); item != nil {
			item.Properties.Add(media.PropertyCoverImage)
			return nil
		}
	}

	dst, err := c.staging.Copy(path, src.Rel)
	if err != nil {
		return err
	}
	item, err := c.registry.Register(BucketStatic, &src, dst)
	if err != nil {
		return err
	}
	item.Properties.Add(media.PropertyCoverImage)
	return nil
}

// freeName returns root level name in staging tree not taken by any staged
// file: stem+ext, stem-1+ext and so on.
func (c *Composer) freeName(stem, ext string) string {
	name := stem + ext
	for i := 1; c.staging.Exists(name); i++ {
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return name
}

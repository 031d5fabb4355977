package compose

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"repub/media"
	"repub/utils/relpath"
)

// RenderNavigation writes navigation document built from collected table of
// contents and registers it.
func (c *Composer) RenderNavigation() error {
	if err := c.expect(StageCoverStaged, StageNavigationRendered); err != nil {
		return err
	}

	navPath := c.staging.NavigationPath()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	html.CreateAttr("xmlns:epub", "http://www.idpf.org/2007/ops")
	html.CreateAttr("lang", c.book.Language)
	html.CreateAttr("xml:lang", c.book.Language)

	head := html.CreateElement("head")
	head.CreateElement("meta").CreateAttr("charset", "utf-8")
	head.CreateElement("title").SetText(c.doc.TOCTitle)

	styles, err := c.registry.StyleLinks(navPath, nil)
	if err != nil {
		return err
	}
	for _, href := range styles {
		link := head.CreateElement("link")
		link.CreateAttr("rel", "stylesheet")
		link.CreateAttr("type", "text/css")
		link.CreateAttr("href", href)
	}

	body := html.CreateElement("body")
	nav := body.CreateElement("nav")
	nav.CreateAttr("epub:type", "toc")
	nav.CreateAttr("id", "toc")
	nav.CreateElement("h1").SetText(c.doc.TOCTitle)

	if c.toc.Size() == 0 {
		if err := c.renderStartEntry(nav, navPath); err != nil {
			return err
		}
	} else if err := c.toc.Render(nav, c.book.TOCLevel, navPath); err != nil {
		return fmt.Errorf("unable to render table of contents: %w", err)
	}

	doc.Indent(2)
	if err := doc.WriteToFile(navPath); err != nil {
		return fmt.Errorf("unable to write navigation document: %w", err)
	}

	item, err := c.registry.Register(BucketNavigation, nil, navPath)
	if err != nil {
		return err
	}
	item.Properties.Add(media.PropertyNav)

	c.log.Debug("Navigation rendered", zap.Int("entries", c.toc.Size()), zap.Int("headings", c.toc.Headings()))
	c.stage = StageNavigationRendered
	return nil
}

// renderStartEntry produces single entry list pointing to the first document
// of reading order, toc nav must not be without a list.
func (c *Composer) renderStartEntry(nav *etree.Element, navPath string) error {
	var first *ComposedItem
	if order := c.registry.ReadingOrder(); len(order) > 0 {
		for _, item := range c.registry.Items(BucketContents) {
			if item.ID == order[0] {
				first = item
				break
			}
		}
	}
	if first == nil {
		return errors.New("unable to render table of contents: book has no content documents")
	}
	c.log.Warn("Table of contents is empty, linking first document", zap.String("document", first.ID))

	href, err := relpath.RelFromFile(navPath, first.Path)
	if err != nil {
		return fmt.Errorf("unable to reference %s from navigation document: %w", first.Path, err)
	}
	a := nav.CreateElement("ol").CreateElement("li").CreateElement("a")
	a.CreateAttr("href", href)
	a.SetText(c.book.Title)
	return nil
}

package compose

import (
	"fmt"

	"github.com/beevik/etree"

	"repub/media"
)

const modifiedLayout = "2006-01-02T15:04:05Z"

// RenderPackage writes package document describing every registered item.
func (c *Composer) RenderPackage() error {
	if err := c.expect(StageNavigationRendered, StagePackageRendered); err != nil {
		return err
	}
	if err := c.registry.Validate(); err != nil {
		return err
	}

	pkgPath := c.staging.PackagePath()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "BookId")
	pkg.CreateAttr("xml:lang", c.book.Language)

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")

	metadata.CreateElement("dc:title").SetText(c.book.Title)
	metadata.CreateElement("dc:language").SetText(c.book.Language)
	if len(c.book.Creator) > 0 {
		metadata.CreateElement("dc:creator").SetText(c.book.Creator)
	}

	id := metadata.CreateElement("dc:identifier")
	id.CreateAttr("id", "BookId")
	id.SetText(c.book.BookID)

	modified := metadata.CreateElement("meta")
	modified.CreateAttr("property", "dcterms:modified")
	modified.SetText(c.now().UTC().Format(modifiedLayout))

	if cover := c.coverItem(); cover != nil {
		meta := metadata.CreateElement("meta")
		meta.CreateAttr("name", "cover")
		meta.CreateAttr("content", cover.ID)
	}

	manifest := pkg.CreateElement("manifest")
	if err := c.registry.Manifest(manifest, pkgPath); err != nil {
		return err
	}

	spine := pkg.CreateElement("spine")
	if dir := c.book.Mode().PageProgression(); len(dir) > 0 {
		spine.CreateAttr("page-progression-direction", dir)
	}
	c.registry.Spine(spine)

	doc.Indent(2)
	if err := doc.WriteToFile(pkgPath); err != nil {
		return fmt.Errorf("unable to write package document: %w", err)
	}

	c.stage = StagePackageRendered
	return nil
}

func (c *Composer) coverItem() *ComposedItem {
	for _, item := range c.registry.Items(BucketStatic) {
		if item.Properties.Has(media.PropertyCoverImage) {
			return item
		}
	}
	return nil
}

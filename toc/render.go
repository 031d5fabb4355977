package toc

import (
	"fmt"

	"github.com/beevik/etree"

	"repub/utils/relpath"
)

// Render appends tree as nested ordered lists to parent. Lists containing
// headings deeper than visibleLevel are still produced but marked hidden, so
// every anchor is reachable from navigation document. Links are relative to
// location of navigation document navPath.
func (t *Tree) Render(parent *etree.Element, visibleLevel int, navPath string) error {
	return renderList(parent, t.Items, visibleLevel, navPath)
}

func renderList(parent *etree.Element, items []Node, visibleLevel int, navPath string) error {
	if len(items) == 0 {
		return nil
	}

	ol := parent.CreateElement("ol")
	if items[0].Level > visibleLevel {
		ol.CreateAttr("hidden", "hidden")
	}

	for i := range items {
		n := &items[i]
		li := ol.CreateElement("li")
		if !n.IsPlaceholder() {
			href, err := relpath.RelFromFile(navPath, n.Doc)
			if err != nil {
				return fmt.Errorf("unable to reference %s from navigation document: %w", n.Doc, err)
			}
			a := li.CreateElement("a")
			a.CreateAttr("href", href+"#"+n.ID)
			a.SetText(n.Title)
		}
		if err := renderList(li, n.Children, visibleLevel, navPath); err != nil {
			return err
		}
	}
	return nil
}

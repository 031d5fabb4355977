package compose

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"repub/media"
	"repub/source"
	"repub/utils/debug"
	"repub/utils/relpath"
)

// Bucket groups composed items, its name is used as identifier namespace.
type Bucket int

const (
	BucketNavigation Bucket = iota
	BucketContents
	BucketCSS
	BucketStatic

	bucketCount
)

func (b Bucket) String() string {
	switch b {
	case BucketNavigation:
		return "navigation"
	case BucketContents:
		return "contents"
	case BucketCSS:
		return "css"
	case BucketStatic:
		return "static"
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// ComposedItem is an artifact placed into staging tree. Source is nil for
// synthesized artifacts.
type ComposedItem struct {
	Source     *source.Source
	Path       string
	ID         string
	MediaType  media.MediaType
	Properties media.Properties
}

// Registry records every staged artifact.
type Registry struct {
	buckets [bucketCount][]*ComposedItem
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register classifies artifact staged at dest and records it in the bucket.
// Classification failure is returned as *media.UnsupportedError.
func (r *Registry) Register(b Bucket, src *source.Source, dest string) (*ComposedItem, error) {
	if b < 0 || b >= bucketCount {
		return nil, fmt.Errorf("unknown bucket %d", int(b))
	}
	mt, err := media.FromPath(dest)
	if err != nil {
		return nil, err
	}
	item := &ComposedItem{
		Source:    src,
		Path:      dest,
		ID:        fmt.Sprintf("%s%d", b, len(r.buckets[b])),
		MediaType: mt,
	}
	r.buckets[b] = append(r.buckets[b], item)
	return item, nil
}

// Items returns items of the bucket in registration order.
func (r *Registry) Items(b Bucket) []*ComposedItem {
	return r.buckets[b]
}

// Len returns total number of registered items.
func (r *Registry) Len() int {
	total := 0
	for _, items := range r.buckets {
		total += len(items)
	}
	return total
}

// FindSource returns item of the bucket staged from source with given
// location relative to the input root.
func (r *Registry) FindSource(b Bucket, rel string) *ComposedItem {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, item := range r.buckets[b] {
		if item.Source != nil && item.Source.Rel == rel {
			return item
		}
	}
	return nil
}

// StyleLinks returns style sheet references relative to document at docPath.
// When only is not empty just style sheets staged from these sources
// (locations relative to the input root) are returned in requested order.
func (r *Registry) StyleLinks(docPath string, only []string) ([]string, error) {
	var styles []*ComposedItem
	if len(only) == 0 {
		styles = r.buckets[BucketCSS]
	} else {
		for _, rel := range only {
			item := r.FindSource(BucketCSS, rel)
			if item == nil {
				return nil, fmt.Errorf("style sheet %q was not staged", rel)
			}
			styles = append(styles, item)
		}
	}

	links := make([]string, 0, len(styles))
	for _, item := range styles {
		href, err := relpath.RelFromFile(docPath, item.Path)
		if err != nil {
			return nil, fmt.Errorf("unable to link style sheet %s: %w", item.ID, err)
		}
		links = append(links, href)
	}
	return links, nil
}

// Manifest appends manifest items to parent with hrefs relative to package
// document at pkgPath: navigation, contents, styles, statics.
func (r *Registry) Manifest(parent *etree.Element, pkgPath string) error {
	for _, items := range r.buckets {
		for _, item := range items {
			href, err := relpath.RelFromFile(pkgPath, item.Path)
			if err != nil {
				return fmt.Errorf("unable to reference %s from package document: %w", item.ID, err)
			}
			el := parent.CreateElement("item")
			el.CreateAttr("id", item.ID)
			el.CreateAttr("href", href)
			el.CreateAttr("media-type", item.MediaType.String())
			if len(item.Properties) > 0 {
				el.CreateAttr("properties", item.Properties.String())
			}
		}
	}
	return nil
}

// ReadingOrder returns identifiers for the spine: navigation document,
// hand-authored navigation documents and then remaining content documents
// ordered by identifier.
func (r *Registry) ReadingOrder() []string {
	var (
		order []string
		rest  []string
	)
	for _, item := range r.buckets[BucketNavigation] {
		order = append(order, item.ID)
	}
	for _, item := range r.buckets[BucketContents] {
		if item.Properties.Has(media.PropertyNav) {
			order = append(order, item.ID)
		} else {
			rest = append(rest, item.ID)
		}
	}
	slices.SortStableFunc(rest, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return append(order, rest...)
}

// Spine appends itemref elements to parent.
func (r *Registry) Spine(parent *etree.Element) {
	for _, id := range r.ReadingOrder() {
		parent.CreateElement("itemref").CreateAttr("idref", id)
	}
}

// Validate checks registry consistency: identifiers are unique and every
// staged path is registered once.
func (r *Registry) Validate() (err error) {
	ids := make(map[string]bool)
	paths := make(map[string]string)
	for _, items := range r.buckets {
		for _, item := range items {
			if ids[item.ID] {
				err = multierr.Append(err, fmt.Errorf("duplicate item id %s", item.ID))
			}
			ids[item.ID] = true
			if other, ok := paths[item.Path]; ok {
				err = multierr.Append(err, fmt.Errorf("items %s and %s share location %s", other, item.ID, item.Path))
			}
			paths[item.Path] = item.ID
		}
	}
	return err
}

// String returns readable dump of the registry for debugging.
func (r *Registry) String() string {
	tw := debug.NewTreeWriter()
	tw.Count(0, "Composed items", r.Len())
	for b, items := range r.buckets {
		tw.Count(1, Bucket(b).String(), len(items))
		for _, item := range items {
			tw.Line(2, "%s [%s] %s", item.ID, item.MediaType, item.Path)
			if item.Source != nil {
				tw.TextBlock(3, "source", item.Source.Rel)
			}
			tw.Values(3, "properties", strings.Fields(item.Properties.String())...)
		}
	}
	return tw.String()
}

package source

import (
	"fmt"
	"path"
)

// Conversion tells how content source gets into staging tree.
type Conversion int

const (
	// MarkdownToXHTML renders markdown into XHTML document.
	MarkdownToXHTML Conversion = iota
	// NoConversion copies pre-rendered markup verbatim.
	NoConversion
)

func (c Conversion) String() string {
	switch c {
	case MarkdownToXHTML:
		return "markdown"
	case NoConversion:
		return "none"
	}
	return fmt.Sprintf("Conversion(%d)", int(c))
}

// UnsupportedContentError is returned for sources which cannot be content
// documents.
type UnsupportedContentError struct {
	Ext string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("unsupported content extension %q", e.Ext)
}

// ContentSource is a Source which becomes a content document.
type ContentSource struct {
	Source
	Conversion Conversion
}

// NewContent derives conversion directive from source extension.
func NewContent(src Source) (ContentSource, error) {
	conv, ok := contentConversion(src.Ext)
	if !ok {
		return ContentSource{}, &UnsupportedContentError{Ext: src.Ext}
	}
	return ContentSource{Source: src, Conversion: conv}, nil
}

// IsContent reports whether extension denotes content document.
func IsContent(ext string) bool {
	_, ok := contentConversion(ext)
	return ok
}

func contentConversion(ext string) (Conversion, bool) {
	switch ext {
	case "md":
		return MarkdownToXHTML, true
	case "xhtml", "xht":
		return NoConversion, true
	}
	return 0, false
}

// Target returns slash separated location of the staged document relative to
// content directory. Converted markdown always gets "xhtml" extension.
func (c ContentSource) Target() string {
	if c.Conversion == MarkdownToXHTML {
		return c.Rel[:len(c.Rel)-len(path.Ext(c.Rel))] + ".xhtml"
	}
	return c.Rel
}

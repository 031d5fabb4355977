// Package markup turns content sources into XHTML documents: renders
// markdown, assigns heading anchors, detects package item properties and
// wraps results into document template.
package markup

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Converter renders markdown sources.
type Converter struct {
	md  goldmark.Markdown
	log *zap.Logger
}

func NewConverter(log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	// raw HTML is passed through, ParseFragment neutralizes filtered tags
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithRendererOptions(
			ghtml.WithHardWraps(),
			ghtml.WithXHTML(),
			ghtml.WithUnsafe(),
		),
	)
	return &Converter{md: md, log: log.Named("markup")}
}

// Markdown renders markdown text into HTML fragment.
func (c *Converter) Markdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("unable to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadText reads text file. Valid UTF-8 is returned as is (without BOM),
// anything else is decoded from detected encoding.
func (c *Converter) ReadText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
	}

	enc, name, certain := charset.DetermineEncoding(data, "text/plain")
	if name == "utf-8" {
		return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), nil
	}
	c.log.Debug("Decoding source", zap.String("file", path), zap.String("charset", name), zap.Bool("certain", certain))

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode source from %s: %w", name, err)
	}
	return out, nil
}

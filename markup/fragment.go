package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"repub/media"
)

// HeadingFunc is called for every heading found in document order. It
// receives heading level and its plain text title and returns identifier to
// be set on heading element.
type HeadingFunc func(level int, title string) (string, error)

// Fragment is parsed body content of a document.
type Fragment struct {
	nodes []*html.Node
}

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// ParseFragment parses HTML in body context. Elements GFM tag filter
// disallows are turned into text, so their markup shows up escaped.
func ParseFragment(data []byte) (*Fragment, error) {
	nodes, err := html.ParseFragment(bytes.NewReader(data), bodyContext)
	if err != nil {
		return nil, fmt.Errorf("unable to parse fragment: %w", err)
	}
	for i, n := range nodes {
		if nodes[i], err = filterTags(n); err != nil {
			return nil, err
		}
	}
	return &Fragment{nodes: nodes}, nil
}

var filteredTags = map[atom.Atom]bool{
	atom.Title:     true,
	atom.Textarea:  true,
	atom.Style:     true,
	atom.Xmp:       true,
	atom.Iframe:    true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Script:    true,
	atom.Plaintext: true,
}

// filterTags returns n or, when n is filtered element, text node holding its
// serialized markup. Children are processed in place.
func filterTags(n *html.Node) (*html.Node, error) {
	if n.Type == html.ElementNode && n.Namespace == "" && filteredTags[n.DataAtom] {
		var buf bytes.Buffer
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("unable to filter <%s>: %w", n.Data, err)
		}
		return &html.Node{Type: html.TextNode, Data: buf.String()}, nil
	}
	for ch := n.FirstChild; ch != nil; {
		next := ch.NextSibling
		r, err := filterTags(ch)
		if err != nil {
			return nil, err
		}
		if r != ch {
			n.InsertBefore(r, ch)
			n.RemoveChild(ch)
		}
		ch = next
	}
	return n, nil
}

// Headings walks top level nodes of the fragment and for every h1..h5
// element calls fn setting "id" attribute to the returned value.
func (f *Fragment) Headings(fn HeadingFunc) error {
	for _, n := range f.nodes {
		level := headingLevel(n)
		if level == 0 {
			continue
		}
		id, err := fn(level, TextContent(n))
		if err != nil {
			return err
		}
		setAttr(n, "id", id)
	}
	return nil
}

// Properties returns package item properties required by fragment content.
func (f *Fragment) Properties() media.Properties {
	var props media.Properties
	for _, n := range f.nodes {
		detect(n, &props)
	}
	return props
}

// Render serializes fragment producing self-closing void elements.
func (f *Fragment) Render() ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range f.nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("unable to render fragment: %w", err)
		}
	}
	return FixVoidElements(buf.Bytes()), nil
}

// DetectProperties parses complete document and returns package item
// properties required by its content.
func DetectProperties(data []byte) (media.Properties, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	var props media.Properties
	detect(doc, &props)
	return props, nil
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	}
	return 0
}

// TextContent concatenates all text nodes under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func detect(n *html.Node, props *media.Properties) {
	if n.Type == html.ElementNode {
		switch {
		case n.DataAtom == atom.Svg:
			props.Add(media.PropertySVG)
		case n.DataAtom == atom.Math:
			props.Add(media.PropertyMathML)
		case n.DataAtom == atom.Script:
			props.Add(media.PropertyScripted)
		case n.Data == "epub:switch":
			props.Add(media.PropertySwitch)
		}
		for _, a := range n.Attr {
			if isResourceAttr(n, a) && isRemote(a.Val) {
				props.Add(media.PropertyRemoteResources)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		detect(c, props)
	}
}

// isResourceAttr reports whether attribute loads resource rendered as part of
// the document, as opposed to hyperlinks.
func isResourceAttr(n *html.Node, a html.Attribute) bool {
	switch a.Key {
	case "src", "poster":
		return true
	case "data":
		return n.DataAtom == atom.Object
	case "href":
		return n.DataAtom == atom.Link || (n.Namespace == "svg" && n.Data != "a")
	}
	return false
}

func isRemote(u string) bool {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "//")
}

var voidElement = regexp.MustCompile(`<(area|base|br|col|embed|hr|img|input|link|meta|source|track|wbr)\b([^>]*?)\s*/?>`)

// FixVoidElements rewrites void elements to " />" form expected by XHTML
// readers.
func FixVoidElements(data []byte) []byte {
	return voidElement.ReplaceAll(data, []byte("<$1$2 />"))
}

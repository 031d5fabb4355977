package markup

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed document.xhtml.tmpl
var documentTemplate string

var document = template.Must(template.New("document").Funcs(template.FuncMap{
	"escape": template.HTMLEscapeString,
}).Parse(documentTemplate))

// Document is content of generated XHTML document.
type Document struct {
	Title    string
	Language string
	Styles   []string
	Body     []byte
}

// Execute wraps document body into complete XHTML document.
func (d *Document) Execute() ([]byte, error) {
	var buf bytes.Buffer
	if err := document.Execute(&buf, struct {
		Title    string
		Language string
		Styles   []string
		Body     string
	}{d.Title, d.Language, d.Styles, string(d.Body)}); err != nil {
		return nil, fmt.Errorf("unable to execute document template: %w", err)
	}
	return buf.Bytes(), nil
}

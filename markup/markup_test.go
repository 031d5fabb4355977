package markup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"repub/media"
)

func TestConverter_Markdown(t *testing.T) {
	c := NewConverter(zaptest.NewLogger(t))

	out, err := c.Markdown([]byte("# Title\n\nline one\nline two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~ https://example.com\n\n- [x] done\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	s := string(out)
	for _, want := range []string{"<h1>Title</h1>", "<br />", "<table>", "<del>gone</del>", `<a href="https://example.com">`, `type="checkbox"`} {
		if !strings.Contains(s, want) {
			t.Errorf("rendered markdown misses %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "raw HTML omitted") {
		t.Errorf("raw html must be passed through:\n%s", s)
	}
	if strings.Contains(s, `id="`) {
		t.Errorf("renderer must not produce heading ids:\n%s", s)
	}
}

func TestConverter_ReadText(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(zaptest.NewLogger(t))

	utf := filepath.Join(dir, "utf.md")
	if err := os.WriteFile(utf, []byte("\xef\xbb\xbf# Заголовок"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadText(utf)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Заголовок" {
		t.Errorf("ReadText() = %q", got)
	}

	long := filepath.Join(dir, "long.md")
	text := "# Title\n\n" + strings.Repeat("plain ascii text line\n", 60) + "café 日本語\n"
	if err := os.WriteFile(long, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err = c.ReadText(long); err != nil {
		t.Fatal(err)
	}
	if string(got) != text {
		t.Errorf("ReadText() changed UTF-8 text after long ASCII prefix: %q", got[len(got)-20:])
	}

	legacy := filepath.Join(dir, "legacy.md")
	if err := os.WriteFile(legacy, []byte("caf\xe9"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err = c.ReadText(legacy); err != nil {
		t.Fatal(err)
	}
	if string(got) != "café" {
		t.Errorf("ReadText() = %q, want decoded windows-1252", got)
	}

	if _, err := c.ReadText(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarkdownRawHTML(t *testing.T) {
	c := NewConverter(zaptest.NewLogger(t))

	src := "text <span class=\"x\">inline</span>\n\n" +
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"10\" height=\"10\">\n<rect width=\"10\" height=\"10\"/>\n</svg>\n\n" +
		"<script>alert(1)</script>\n\n" +
		"<iframe src=\"https://example.com\"></iframe>\n"
	out, err := c.Markdown([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	frag, err := ParseFragment(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := frag.Properties(); got.String() != "svg" {
		t.Errorf("Properties() = %q, want %q", got.String(), "svg")
	}

	data, err := frag.Render()
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`<span class="x">inline</span>`, "<svg", "&lt;script&gt;alert(1)&lt;/script&gt;", "&lt;iframe"} {
		if !strings.Contains(s, want) {
			t.Errorf("rendered fragment misses %q:\n%s", want, s)
		}
	}
	for _, bad := range []string{"<script", "<iframe"} {
		if strings.Contains(s, bad) {
			t.Errorf("filtered tag %s survived:\n%s", bad, s)
		}
	}
}

func TestFragment_Headings(t *testing.T) {
	frag, err := ParseFragment([]byte(`<h1>One &amp; <em>only</em></h1><p>text</p><h3 id="old">Three</h3><blockquote><h2>nested</h2></blockquote><h6>six</h6>`))
	if err != nil {
		t.Fatal(err)
	}

	type heading struct {
		level int
		title string
	}
	var got []heading
	n := 0
	err = frag.Headings(func(level int, title string) (string, error) {
		got = append(got, heading{level, title})
		n++
		return "header" + string(rune('0'+n-1)), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []heading{{1, "One & only"}, {3, "Three"}}
	if len(got) != len(want) {
		t.Fatalf("headings = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("heading %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	out, err := frag.Render()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `<h1 id="header0">One &amp; <em>only</em></h1>`) {
		t.Errorf("missing h1 anchor: %s", s)
	}
	if !strings.Contains(s, `<h3 id="header1">`) || strings.Contains(s, `id="old"`) {
		t.Errorf("existing id must be replaced: %s", s)
	}
}

func TestFragment_Properties(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want media.Properties
	}{
		{name: "plain", in: `<p>hello <a href="https://example.com">link</a></p>`},
		{name: "svg", in: `<div><svg><circle r="1"></circle></svg></div>`, want: media.Properties{media.PropertySVG}},
		{name: "math", in: `<math><mi>x</mi></math>`, want: media.Properties{media.PropertyMathML}},
		{name: "filtered script", in: `<script>var a;</script>`},
		{name: "remote image", in: `<p><img src="https://example.com/a.png"></p>`, want: media.Properties{media.PropertyRemoteResources}},
		{name: "local image", in: `<p><img src="images/a.png"></p>`},
		{name: "switch", in: `<epub:switch><epub:case></epub:case></epub:switch>`, want: media.Properties{media.PropertySwitch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := ParseFragment([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			got := frag.Properties()
			if got.String() != tt.want.String() {
				t.Errorf("Properties() = %q, want %q", got.String(), tt.want.String())
			}
		})
	}
}

func TestDetectProperties(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><script src="https://cdn.example.com/x.js"></script></head>
<body><svg xmlns="http://www.w3.org/2000/svg"></svg></body></html>`
	props, err := DetectProperties([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []media.Property{media.PropertyScripted, media.PropertyRemoteResources, media.PropertySVG} {
		if !props.Has(p) {
			t.Errorf("missing property %s in %q", p, props)
		}
	}
}

func TestFixVoidElements(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: `<br/>`, want: `<br />`},
		{in: `<br>`, want: `<br />`},
		{in: `<br />`, want: `<br />`},
		{in: `<hr/>`, want: `<hr />`},
		{in: `<img src="a.png" alt="b"/>`, want: `<img src="a.png" alt="b" />`},
		{in: `<header>x</header>`, want: `<header>x</header>`},
		{in: `<b>bold</b>`, want: `<b>bold</b>`},
		{in: `<colgroup></colgroup>`, want: `<colgroup></colgroup>`},
	}
	for _, tt := range tests {
		got := string(FixVoidElements([]byte(tt.in)))
		if got != tt.want {
			t.Errorf("FixVoidElements(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := string(FixVoidElements([]byte(got))); again != got {
			t.Errorf("FixVoidElements is not idempotent for %q: %q", got, again)
		}
	}
}

func TestFragment_RenderVoid(t *testing.T) {
	frag, err := ParseFragment([]byte("<p>a<br>b<img src=\"x.png\" alt=\"\"></p><hr>"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := frag.Render()
	if err != nil {
		t.Fatal(err)
	}
	want := `<p>a<br />b<img src="x.png" alt="" /></p><hr />`
	if string(out) != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}
}

func TestDocument_Execute(t *testing.T) {
	d := &Document{
		Title:    "A & B <c>",
		Language: "en",
		Styles:   []string{"../style.css", "local.css"},
		Body:     []byte("<p>body</p>"),
	}
	out, err := d.Execute()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`xml:lang="en"`,
		`<title>A &amp; B &lt;c&gt;</title>`,
		`<link rel="stylesheet" type="text/css" href="../style.css" />`,
		`<link rel="stylesheet" type="text/css" href="local.css" />`,
		"<body>\n<p>body</p>\n</body>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("document misses %q:\n%s", want, s)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repub/media"
)

func defaultDocument(t *testing.T) *DocumentConfig {
	t.Helper()
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	return &cfg.Document
}

func TestBookPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "book.md")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := BookPath(dir)
	if err != nil || got != filepath.Join(dir, BookFileName) {
		t.Errorf("BookPath(dir) = %q, %v", got, err)
	}
	got, err = BookPath(file)
	if err != nil || got != filepath.Join(dir, BookFileName) {
		t.Errorf("BookPath(file) = %q, %v", got, err)
	}
	if _, err := BookPath(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestLoadBook_Missing(t *testing.T) {
	b, found, err := LoadBook(filepath.Join(t.TempDir(), BookFileName))
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}
	if found || b == nil || b.Title != "" {
		t.Errorf("expected empty book, got %+v (found %v)", b, found)
	}
}

func TestLoadBook_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), BookFileName)
	if err := os.WriteFile(path, []byte(`{"title": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadBook(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestBook_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), BookFileName)
	vrl := WritingModeVrl
	b := &Book{
		Title:       "Title",
		Creator:     "Author",
		Language:    "ja",
		BookID:      "urn:isbn:123",
		WritingMode: &vrl,
		TOCLevel:    3,
		CoverImage:  "images/cover.png",
		Sequence:    []string{"b.md", "a.md"},
		Ignores:     []string{"drafts/**"},
		Contents: []ContentConfig{
			{Path: "toc.xhtml", Properties: []media.Property{media.PropertyNav}, Styles: []string{"nav.css"}},
		},
	}
	if err := b.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"writing_mode": "vrl"`, `"properties": [`, `"nav"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved configuration misses %s:\n%s", want, data)
		}
	}

	// second save overwrites
	if err := b.Save(path); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, found, err := LoadBook(path)
	if err != nil || !found {
		t.Fatalf("LoadBook() = %v, %v", found, err)
	}
	if got.Title != b.Title || got.Mode() != WritingModeVrl || got.TOCLevel != 3 || len(got.Sequence) != 2 {
		t.Errorf("loaded book differs: %+v", got)
	}
	c := got.Content("./toc.xhtml")
	if c == nil || len(c.Properties) != 1 || c.Properties[0] != media.PropertyNav {
		t.Errorf("Content() = %+v", c)
	}
	if got.Content("other.md") != nil {
		t.Error("Content() found unknown document")
	}
}

func TestBook_Merge(t *testing.T) {
	b := &Book{Title: "Old", Creator: "Someone", TOCLevel: 2}
	title, lvl, mode := "New", 4, WritingModeVlr
	b.Merge(Overrides{Title: &title, TOCLevel: &lvl, WritingMode: &mode})

	if b.Title != "New" || b.Creator != "Someone" || b.TOCLevel != 4 || b.Mode() != WritingModeVlr {
		t.Errorf("unexpected merge result %+v", b)
	}
	mode = WritingModeHtb
	if b.Mode() != WritingModeVlr {
		t.Error("Merge must copy writing mode")
	}
}

func TestBook_Complete(t *testing.T) {
	doc := defaultDocument(t)

	b := &Book{Title: "  Book  "}
	if err := b.Complete(doc); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if b.Title != "Book" {
		t.Errorf("Title = %q", b.Title)
	}
	if b.Language != doc.Language {
		t.Errorf("Language = %q, want %q", b.Language, doc.Language)
	}
	if b.Mode() != doc.WritingMode || b.TOCLevel != doc.TOCLevel {
		t.Errorf("defaults not applied: %+v", b)
	}
	if !strings.HasPrefix(b.BookID, "urn:uuid:") {
		t.Errorf("BookID = %q, want urn:uuid: prefix", b.BookID)
	}

	other := &Book{Title: "Book"}
	if err := other.Complete(doc); err != nil {
		t.Fatal(err)
	}
	if other.BookID == b.BookID {
		t.Error("generated identifiers must differ")
	}
}

func TestBook_CompleteErrors(t *testing.T) {
	doc := defaultDocument(t)
	bad := WritingMode(9)
	tests := []struct {
		name string
		book Book
	}{
		{name: "no title", book: Book{Title: "  "}},
		{name: "bad language", book: Book{Title: "x", Language: "not a language!"}},
		{name: "bad toc level", book: Book{Title: "x", TOCLevel: 6}},
		{name: "bad writing mode", book: Book{Title: "x", WritingMode: &bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.book.Complete(doc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBook_CompleteCanonicalLanguage(t *testing.T) {
	b := &Book{Title: "x", Language: "EN-us"}
	if err := b.Complete(defaultDocument(t)); err != nil {
		t.Fatal(err)
	}
	if b.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", b.Language)
	}
}

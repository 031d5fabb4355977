package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"repub/media"
)

// BookFileName is name of persisted book configuration, it is looked for next
// to the input file or inside the input directory.
const BookFileName = "repub.json"

// ContentConfig holds per content document settings. Path is relative to the
// input root, Styles (also relative to the input root) restrict style sheets
// linked from the document, all staged style sheets are linked when empty.
type ContentConfig struct {
	Path       string           `json:"path"`
	Properties []media.Property `json:"properties,omitempty"`
	Styles     []string         `json:"styles,omitempty"`
}

// Book is persisted per book configuration.
type Book struct {
	Title       string          `json:"title"`
	Creator     string          `json:"creator"`
	Language    string          `json:"language,omitempty"`
	BookID      string          `json:"book_id,omitempty"`
	WritingMode *WritingMode    `json:"writing_mode,omitempty"`
	TOCLevel    int             `json:"toc_level,omitempty"`
	CoverImage  string          `json:"cover_image,omitempty"`
	Sequence    []string        `json:"sequence,omitempty"`
	Ignores     []string        `json:"ignores,omitempty"`
	Contents    []ContentConfig `json:"contents,omitempty"`
}

// Overrides are explicit values requested for a single run, nil fields are
// left untouched.
type Overrides struct {
	Title       *string
	Creator     *string
	Language    *string
	BookID      *string
	CoverImage  *string
	WritingMode *WritingMode
	TOCLevel    *int
}

// BookPath returns location of the book configuration for input path.
func BookPath(input string) (string, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return filepath.Join(input, BookFileName), nil
	}
	return filepath.Join(filepath.Dir(input), BookFileName), nil
}

// LoadBook reads book configuration. Absence of the file is not an error,
// empty configuration is returned.
func LoadBook(path string) (*Book, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Book{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("unable to read book configuration: %w", err)
	}

	b := &Book{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, false, fmt.Errorf("unable to decode book configuration %s: %w", path, err)
	}
	return b, true, nil
}

// Save writes book configuration. When file cannot be created it is removed
// and creation is retried once.
func (b *Book) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode book configuration: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			return fmt.Errorf("unable to create book configuration: %w", err)
		}
		if f, err = os.Create(path); err != nil {
			return fmt.Errorf("unable to create book configuration: %w", err)
		}
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("unable to write book configuration: %w", err)
	}
	return f.Close()
}

// Merge applies explicit overrides.
func (b *Book) Merge(o Overrides) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.Title, o.Title)
	set(&b.Creator, o.Creator)
	set(&b.Language, o.Language)
	set(&b.BookID, o.BookID)
	set(&b.CoverImage, o.CoverImage)
	if o.WritingMode != nil {
		wm := *o.WritingMode
		b.WritingMode = &wm
	}
	if o.TOCLevel != nil {
		b.TOCLevel = *o.TOCLevel
	}
}

// Complete fills values missing from book configuration using program
// defaults and validates result.
func (b *Book) Complete(defaults *DocumentConfig) error {
	b.Title = strings.TrimSpace(b.Title)
	if len(b.Title) == 0 {
		return errors.New("book title is not specified")
	}

	if len(b.Language) == 0 {
		b.Language = defaults.Language
	}
	tag, err := language.Parse(b.Language)
	if err != nil {
		return fmt.Errorf("invalid book language %q: %w", b.Language, err)
	}
	b.Language = tag.String()

	if b.WritingMode == nil {
		wm := defaults.WritingMode
		b.WritingMode = &wm
	}
	if !b.WritingMode.IsValid() {
		return fmt.Errorf("invalid writing mode %d", int(*b.WritingMode))
	}

	if b.TOCLevel == 0 {
		b.TOCLevel = defaults.TOCLevel
	}
	if b.TOCLevel < 1 || b.TOCLevel > 5 {
		return fmt.Errorf("toc level %d is out of range [1, 5]", b.TOCLevel)
	}

	if len(b.BookID) == 0 {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("unable to generate book id: %w", err)
		}
		b.BookID = "urn:uuid:" + id.String()
	}
	return nil
}

// Mode returns book writing mode, horizontal when not set.
func (b *Book) Mode() WritingMode {
	if b.WritingMode == nil {
		return WritingModeHtb
	}
	return *b.WritingMode
}

// Content returns configuration for content document at path relative to the
// input root or nil.
func (b *Book) Content(path string) *ContentConfig {
	path = filepath.ToSlash(filepath.Clean(path))
	i := slices.IndexFunc(b.Contents, func(c ContentConfig) bool {
		return filepath.ToSlash(filepath.Clean(c.Path)) == path
	})
	if i < 0 {
		return nil
	}
	return &b.Contents[i]
}

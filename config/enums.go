package config

import (
	"errors"
	"fmt"
	"slices"
)

// WritingMode of the book: horizontal top to bottom, vertical right to left
// or vertical left to right.
type WritingMode int

const (
	WritingModeHtb WritingMode = iota
	WritingModeVrl
	WritingModeVlr
)

var ErrInvalidWritingMode = errors.New("not a valid writing mode")

var writingModeNames = []string{
	WritingModeHtb: "htb",
	WritingModeVrl: "vrl",
	WritingModeVlr: "vlr",
}

// WritingModeNames returns names of all writing modes.
func WritingModeNames() []string {
	return slices.Clone(writingModeNames)
}

// ParseWritingMode converts name to WritingMode.
func ParseWritingMode(name string) (WritingMode, error) {
	if i := slices.Index(writingModeNames, name); i >= 0 {
		return WritingMode(i), nil
	}
	return WritingModeHtb, fmt.Errorf("%s is %w", name, ErrInvalidWritingMode)
}

func (w WritingMode) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("WritingMode(%d)", int(w))
	}
	return writingModeNames[w]
}

func (w WritingMode) IsValid() bool {
	return w >= 0 && int(w) < len(writingModeNames)
}

func (w WritingMode) MarshalText() ([]byte, error) {
	if !w.IsValid() {
		return nil, fmt.Errorf("%d is %w", int(w), ErrInvalidWritingMode)
	}
	return []byte(w.String()), nil
}

func (w *WritingMode) UnmarshalText(text []byte) error {
	mode, err := ParseWritingMode(string(text))
	if err != nil {
		return err
	}
	*w = mode
	return nil
}

// PageProgression returns value for spine page-progression-direction
// attribute, empty when reading system default should be used.
func (w WritingMode) PageProgression() string {
	switch w {
	case WritingModeVlr:
		return "ltr"
	case WritingModeVrl:
		return "rtl"
	default:
		return ""
	}
}

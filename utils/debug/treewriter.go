// Package debug renders indented plain text dumps of internal structures for
// debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines, depth is the nesting level.
type TreeWriter struct {
	b *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{b: &strings.Builder{}}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

func (tw *TreeWriter) pad(depth int) {
	tw.b.WriteString(strings.Repeat(indent, max(depth, 0)))
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.b, format, args...)
	tw.b.WriteByte('\n')
}

// TextBlock writes labeled text. Text is quoted so line breaks and
// surrounding spaces stay visible, empty text is shown as "-".
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.b.WriteString(label)
	tw.b.WriteString(": ")
	tw.b.WriteString(quote(value))
	tw.b.WriteByte('\n')
}

// Count writes label followed by number of items.
func (tw *TreeWriter) Count(depth int, label string, n int) {
	tw.Line(depth, "%s: %d", label, n)
}

// Values writes label followed by comma separated values. Nothing is written
// when there are no values.
func (tw *TreeWriter) Values(depth int, label string, values ...string) {
	if len(values) == 0 {
		return
	}
	tw.Line(depth, "%s: %s", label, strings.Join(values, ", "))
}

func quote(raw string) string {
	if raw == "" {
		return "-"
	}
	return strconv.Quote(raw)
}

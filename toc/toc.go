// Package toc builds nested table of contents from the flat stream of
// headings encountered while converting content documents.
package toc

import (
	"fmt"

	"repub/utils/debug"
)

// MaxLevel is the deepest supported heading level (h5).
const MaxLevel = 5

// Node is either a heading or a placeholder inserted to bridge skipped
// heading levels. Placeholders have no title, id or owning document.
type Node struct {
	Level    int
	Title    string
	ID       string
	Doc      string
	Children []Node

	placeholder bool
}

// IsPlaceholder reports whether node was created to fill a skipped heading
// level and has no heading of its own.
func (n *Node) IsPlaceholder() bool {
	return n.placeholder
}

// Tree is the table of contents for a single composition run. Zero value is
// ready to use.
type Tree struct {
	Items []Node

	headings int
}

// Push registers heading of the given level found in document doc and returns
// fragment identifier to be assigned to the heading element. Identifiers are
// sequential in call order and unique for the tree.
func (t *Tree) Push(level int, title, doc string) (string, error) {
	if level < 1 || level > MaxLevel {
		return "", fmt.Errorf("heading level %d is out of range [1, %d]", level, MaxLevel)
	}

	id := fmt.Sprintf("header%d", t.headings)
	t.headings++

	t.Items = insert(t.Items, 0, Node{Level: level, Title: title, ID: id, Doc: doc})
	return id, nil
}

// insert places n into list of children of a container of parentLevel. When
// level of n is deeper than next level it descends into the last child,
// creating placeholder if there is none.
func insert(items []Node, parentLevel int, n Node) []Node {
	if n.Level == parentLevel+1 {
		return append(items, n)
	}
	if len(items) == 0 {
		items = append(items, Node{Level: parentLevel + 1, placeholder: true})
	}
	last := &items[len(items)-1]
	last.Children = insert(last.Children, last.Level, n)
	return items
}

// Size returns total number of nodes in the tree including placeholders.
func (t *Tree) Size() int {
	return size(t.Items)
}

func size(items []Node) int {
	total := 0
	for i := range items {
		total += 1 + size(items[i].Children)
	}
	return total
}

// Headings returns number of headings pushed so far.
func (t *Tree) Headings() int {
	return t.headings
}

// Walk calls fn for every node in document order, depth of top level nodes
// is 1.
func (t *Tree) Walk(fn func(depth int, n *Node)) {
	walk(t.Items, 1, fn)
}

func walk(items []Node, depth int, fn func(int, *Node)) {
	for i := range items {
		fn(depth, &items[i])
		walk(items[i].Children, depth+1, fn)
	}
}

// String returns readable dump of the tree for debugging.
func (t *Tree) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Table of contents: %d nodes, %d headings", t.Size(), t.headings)
	t.Walk(func(depth int, n *Node) {
		if n.placeholder {
			tw.Line(depth, "h%d <placeholder>", n.Level)
			return
		}
		tw.Line(depth, "h%d [%s] %s", n.Level, n.ID, n.Doc)
		tw.TextBlock(depth+1, "title", n.Title)
	})
	return tw.String()
}

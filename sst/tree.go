// Package sst reads the Stanford Sentiment Treebank.
//
// The treebank stores one binarized parse tree per line
// as an s-expression, with a sentiment label from 0 to 4
// on every node:
//
//	(3 (2 It) (4 (2 's) (4 (3 (2 a) (4 lovely)) (2 film))))
package sst

import (
	"errors"
	"strconv"
	"strings"

	"github.com/unixpickle/treelstm"
)

// A Tree is a labeled parse tree.
//
// Leaves have a Word and no Children.
// Internal nodes have one or two Children and no Word.
type Tree struct {
	Label    int
	Word     string
	Children []*Tree
}

// IsLeaf returns true if the tree has no children.
func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

// Walk calls f for every node, in post-order.
func (t *Tree) Walk(f func(t *Tree)) {
	for _, child := range t.Children {
		child.Walk(f)
	}
	f(t)
}

// Leaves returns the words of the tree, in order.
func (t *Tree) Leaves() []string {
	var res []string
	t.Walk(func(t *Tree) {
		if t.IsLeaf() {
			res = append(res, t.Word)
		}
	})
	return res
}

// Sentence joins the leaves with spaces.
func (t *Tree) Sentence() string {
	return strings.Join(t.Leaves(), " ")
}

// NumNodes counts the nodes in the tree.
func (t *Tree) NumNodes() int {
	var n int
	t.Walk(func(*Tree) {
		n++
	})
	return n
}

// Depth returns the number of nodes on the longest path
// from the root to a leaf.
func (t *Tree) Depth() int {
	var max int
	for _, child := range t.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// String encodes the tree as an s-expression, escaping
// brackets in words the way the treebank does.
func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tree) write(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(t.Label))
	if t.IsLeaf() {
		b.WriteByte(' ')
		b.WriteString(escapeWord(t.Word))
	}
	for _, child := range t.Children {
		b.WriteByte(' ')
		child.write(b)
	}
	b.WriteByte(')')
}

// Index maps the tree's words to embedding rows using
// lookup, producing a tree a treelstm.Model can evaluate.
func (t *Tree) Index(lookup func(word string) int) (*treelstm.Node, error) {
	res := &treelstm.Node{Label: t.Label}
	switch len(t.Children) {
	case 0:
		res.Word = lookup(t.Word)
	case 2:
		right, err := t.Children[1].Index(lookup)
		if err != nil {
			return nil, err
		}
		res.Right = right
		fallthrough
	case 1:
		left, err := t.Children[0].Index(lookup)
		if err != nil {
			return nil, err
		}
		res.Left = left
	default:
		return nil, errors.New("index tree: more than two children")
	}
	return res, nil
}

// Words collects the vocabulary of the trees.
func Words(trees ...[]*Tree) map[string]bool {
	res := map[string]bool{}
	for _, list := range trees {
		for _, t := range list {
			for _, w := range t.Leaves() {
				res[w] = true
			}
		}
	}
	return res
}

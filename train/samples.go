// Package train fits a treelstm.Model to labelled trees.
package train

import (
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/sgd"
	"github.com/unixpickle/treelstm/sst"
)

// A SampleList is an sgd.SampleList of indexed trees.
type SampleList []*treelstm.Node

// NewSampleList indexes parse trees with lookup.
func NewSampleList(trees []*sst.Tree, lookup func(word string) int) (SampleList, error) {
	res := make(SampleList, len(trees))
	for i, t := range trees {
		node, err := t.Index(lookup)
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("tree %d", i), err)
		}
		res[i] = node
	}
	return res, nil
}

// Len returns the number of trees.
func (s SampleList) Len() int {
	return len(s)
}

// Swap swaps two trees.
func (s SampleList) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Slice copies a sub-range of the list.
func (s SampleList) Slice(i, j int) sgd.SampleList {
	return append(SampleList{}, s[i:j]...)
}

// NumNodes counts the nodes of every tree.
func (s SampleList) NumNodes() int {
	var res int
	for _, n := range s {
		res += n.NumNodes()
	}
	return res
}

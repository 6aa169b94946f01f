package treelstm

import (
	"errors"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// NumClasses is the number of sentiment labels, from 0
// (very negative) to 4 (very positive).
const NumClasses = 5

// NeutralLabel is the label ignored by binary metrics.
const NeutralLabel = 2

func init() {
	var m Model
	serializer.RegisterTypedDeserializer(m.SerializerType(), DeserializeModel)
}

// A Node is a parse tree whose leaves have been mapped to
// embedding rows.
//
// A leaf has no children.
// An internal node has a Left child and, usually, a Right
// child; a missing Right child is treated as a zero state.
type Node struct {
	Label int
	Word  int
	Left  *Node
	Right *Node
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// NumNodes counts the nodes in the subtree.
func (n *Node) NumNodes() int {
	if n == nil {
		return 0
	}
	return 1 + n.Left.NumNodes() + n.Right.NumNodes()
}

// Labels returns the labels of the subtree in post-order,
// which is the order in which a Model emits logits.
func (n *Node) Labels() []int {
	var res []int
	n.postOrder(func(n *Node) {
		res = append(res, n.Label)
	})
	return res
}

func (n *Node) postOrder(f func(n *Node)) {
	if n == nil {
		return
	}
	n.Left.postOrder(f)
	n.Right.postOrder(f)
	f(n)
}

// A ModelConfig describes the shape of a new Model.
type ModelConfig struct {
	// StateSize is the number of LSTM units.
	StateSize int

	// KeepProb is the dropout keep probability applied to
	// leaf inputs, LSTM candidates, and hidden outputs.
	// A value of 1 disables dropout.
	KeepProb float64

	// ForgetBias is the cell's forget bias.
	// DefaultForgetBias is the usual choice.
	ForgetBias float64

	// FreezeEmbedding prevents the embedding table from
	// being trained.
	FreezeEmbedding bool
}

// A Model classifies every node of a tree.
//
// Leaves feed their word vector through the cell with
// zero child states; internal nodes feed a zero input.
// Every node's hidden output goes through the Output
// network to produce log-probabilities.
type Model struct {
	Embedding    *Embedding
	InputDropout *Dropout
	Cell         *Cell
	Output       Net
}

// DeserializeModel deserializes a Model.
func DeserializeModel(d []byte) (*Model, error) {
	var res Model
	err := serializer.DeserializeAny(d, &res.Embedding, &res.InputDropout, &res.Cell,
		&res.Output)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Model", err)
	}
	if res.Embedding.Dim != res.Cell.InCount {
		return nil, errors.New("deserialize Model: embedding size mismatch")
	}
	return &res, nil
}

// NewModel creates a model around an embedding table with
// dim columns.
// The model uses the table's creator for all of its
// parameters.
func NewModel(table anyvec.Vector, dim int, conf ModelConfig) *Model {
	c := table.Creator()
	embedding := NewEmbedding(table, dim)
	embedding.Frozen = conf.FreezeEmbedding

	cell := NewCell(c, dim, conf.StateSize, conf.ForgetBias)
	keepProb := conf.KeepProb
	if keepProb == 0 {
		keepProb = 1
	}
	cell.Dropout = &Dropout{KeepProb: keepProb}

	return &Model{
		Embedding:    embedding,
		InputDropout: &Dropout{KeepProb: keepProb},
		Cell:         cell,
		Output: Net{
			&Dropout{KeepProb: keepProb},
			NewFC(c, conf.StateSize, NumClasses),
			LogSoftmax,
		},
	}
}

// SetTraining enables or disables every dropout layer.
//
// It must not be called while trees are being evaluated.
func (m *Model) SetTraining(training bool) {
	m.InputDropout.Enabled = training
	if m.Cell.Dropout != nil {
		m.Cell.Dropout.Enabled = training
	}
	m.Output.SetDropout(training)
}

// Parameters returns the dense parameters of the model.
// The embedding table is not included, since its gradient
// is computed sparsely; see TreeRes.Rows.
func (m *Model) Parameters() []*anydiff.Var {
	return append(m.Cell.Parameters(), m.Output.Parameters()...)
}

// TrainableParameters returns Parameters() plus the
// embedding table, unless it is frozen.
func (m *Model) TrainableParameters() []*anydiff.Var {
	res := m.Parameters()
	if !m.Embedding.Frozen {
		res = append(res, m.Embedding.Table)
	}
	return res
}

// A RowUse records one lookup of an embedding row.
type RowUse struct {
	Index int
	Var   *anydiff.Var
}

// A TreeRes is the result of applying a Model to a tree.
type TreeRes struct {
	// Logits contains NumClasses log-probabilities for
	// every node, in post-order.
	// The root is the last node.
	Logits anydiff.Res

	// Labels contains the label of every node, in
	// post-order.
	Labels []int

	// Rows lists the embedding rows used by the leaves.
	// To back-propagate into the embedding, add each Var
	// to the gradient before calling Propagate.
	Rows []RowUse
}

// NumNodes returns the number of classified nodes.
func (t *TreeRes) NumNodes() int {
	return len(t.Labels)
}

// Cost computes the summed cross-entropy over all nodes.
// The result is a one-component vector.
func (t *TreeRes) Cost() anydiff.Res {
	c := t.Logits.Output().Creator()
	desired := anydiff.NewConst(OneHot(c, t.Labels, NumClasses))
	return anydiff.Sum(DotCost{}.Cost(desired, t.Logits, t.NumNodes()))
}

// Predictions returns the most likely label of every
// node, in post-order.
func (t *TreeRes) Predictions() []int {
	probs := t.Probabilities()
	res := make([]int, len(probs))
	for i, p := range probs {
		best := 0
		for j, x := range p {
			if x > p[best] {
				best = j
			}
		}
		res[i] = best
	}
	return res
}

// Probabilities returns the class distribution of every
// node, in post-order.
func (t *TreeRes) Probabilities() [][]float64 {
	logits := Floats(t.Logits.Output())
	res := make([][]float64, t.NumNodes())
	for i := range res {
		row := make([]float64, NumClasses)
		for j := range row {
			row[j] = math.Exp(logits[i*NumClasses+j])
		}
		res[i] = row
	}
	return res
}

// Apply builds the computation graph for a tree.
func (m *Model) Apply(root *Node) *TreeRes {
	res := &TreeRes{Labels: root.Labels()}
	c := m.Embedding.Table.Vector.Creator()
	res.Logits = m.apply(c, root, res, nil)
	return res
}

// apply evaluates the subtree and passes its state to k.
// The returned Res concatenates the logits of the subtree
// in post-order with the output of k.
//
// Routing every state through a continuation lets each
// state be pooled, so it is back-propagated once even
// though both the output layer and the parent use it.
func (m *Model) apply(c anyvec.Creator, n *Node, res *TreeRes,
	k func(state anydiff.Res) anydiff.Res) anydiff.Res {
	emit := func(state anydiff.Res) anydiff.Res {
		return anydiff.Pool(state, func(state anydiff.Res) anydiff.Res {
			logits := m.Output.Apply(m.Cell.Hidden(state), 1)
			if k == nil {
				return logits
			}
			return anydiff.Concat(logits, k(state))
		})
	}

	if n.IsLeaf() {
		row := m.Embedding.Lookup(n.Word)
		res.Rows = append(res.Rows, RowUse{Index: n.Word, Var: row})
		in := m.InputDropout.Apply(row, 1)
		return emit(m.Cell.Apply(in, m.Cell.ZeroState(c), m.Cell.ZeroState(c)))
	}

	return m.apply(c, n.Left, res, func(left anydiff.Res) anydiff.Res {
		if n.Right == nil {
			return emit(m.Cell.Apply(m.Cell.ZeroInput(c), left, m.Cell.ZeroState(c)))
		}
		return m.apply(c, n.Right, res, func(right anydiff.Res) anydiff.Res {
			return emit(m.Cell.Apply(m.Cell.ZeroInput(c), left, right))
		})
	})
}

// SerializerType returns the unique ID used to serialize
// a Model with the serializer package.
func (m *Model) SerializerType() string {
	return "github.com/unixpickle/treelstm.Model"
}

// Serialize serializes the Model.
func (m *Model) Serialize() ([]byte, error) {
	return serializer.SerializeAny(m.Embedding, m.InputDropout, m.Cell, m.Output)
}

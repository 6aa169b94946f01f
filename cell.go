package treelstm

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// DefaultForgetBias is the usual forget bias, which makes
// an untrained cell keep most of its children's memory.
const DefaultForgetBias = 1

// Indices of the gate blocks in the output of Cell.Gates.
const (
	gateIn = iota
	gateForgetLeft
	gateForgetRight
	gateOut
	gateCandidate
	numGates
)

func init() {
	var c Cell
	serializer.RegisterTypedDeserializer(c.SerializerType(), DeserializeCell)
}

// A Cell is a binary TreeLSTM cell with one forget gate
// per child.
//
// A node's state packs the memory and the hidden output
// into a single vector [c, h] of length 2*StateSize.
// For input x and child states (cL, hL) and (cR, hR):
//
//	i, fL, fR, o, u = W*[x, hL, hR] + b
//	c = sig(fL+fb)*cL + sig(fR+fb)*cR + sig(i)*drop(tanh(u))
//	h = sig(o)*tanh(c)
type Cell struct {
	InCount   int
	StateSize int

	// ForgetBias is the constant fb added to both forget
	// gates at every node.
	ForgetBias float64

	// Gates maps [x, hL, hR] to the five gate blocks in the
	// order i, fL, fR, o, u.
	Gates *FC

	// Dropout, if non-nil, is applied to the candidate
	// tanh(u) (recurrent dropout).
	Dropout *Dropout
}

// DeserializeCell deserializes a Cell.
func DeserializeCell(d []byte) (*Cell, error) {
	var gates *FC
	var dropout *Dropout
	var hasDropout serializer.Int
	var forgetBias serializer.Float64
	err := serializer.DeserializeAny(d, &gates, &forgetBias, &hasDropout, &dropout)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Cell", err)
	}
	if gates.OutCount%numGates != 0 {
		return nil, errors.New("deserialize Cell: gate count mismatch")
	}
	stateSize := gates.OutCount / numGates
	inCount := gates.InCount - 2*stateSize
	if inCount <= 0 {
		return nil, errors.New("deserialize Cell: invalid input size")
	}
	res := &Cell{
		InCount:    inCount,
		StateSize:  stateSize,
		ForgetBias: float64(forgetBias),
		Gates:      gates,
	}
	if hasDropout == 1 {
		res.Dropout = dropout
	}
	return res, nil
}

// NewCell creates a randomized Cell with the given
// forget bias.
// The trainable biases start at zero.
func NewCell(c anyvec.Creator, in, state int, forgetBias float64) *Cell {
	return &Cell{
		InCount:    in,
		StateSize:  state,
		ForgetBias: forgetBias,
		Gates:      NewFC(c, in+2*state, numGates*state),
	}
}

// ZeroState returns the state used in place of a missing
// child.
func (c *Cell) ZeroState(cr anyvec.Creator) anydiff.Res {
	return anydiff.NewConst(cr.MakeVector(2 * c.StateSize))
}

// ZeroInput returns the input used for internal nodes,
// which have no word of their own.
func (c *Cell) ZeroInput(cr anyvec.Creator) anydiff.Res {
	return anydiff.NewConst(cr.MakeVector(c.InCount))
}

// Apply computes a node's state from its input and the
// states of its two children.
//
// Each argument is used exactly once in the resulting
// graph, so back-propagation through a tree stays linear
// in the number of nodes.
func (c *Cell) Apply(in, left, right anydiff.Res) anydiff.Res {
	if in.Output().Len() != c.InCount {
		panic(fmt.Sprintf("input length should be %d, but got %d", c.InCount,
			in.Output().Len()))
	}
	for _, s := range []anydiff.Res{left, right} {
		if s.Output().Len() != 2*c.StateSize {
			panic(fmt.Sprintf("state length should be %d, but got %d",
				2*c.StateSize, s.Output().Len()))
		}
	}
	n := c.StateSize
	return anydiff.Pool(left, func(left anydiff.Res) anydiff.Res {
		return anydiff.Pool(right, func(right anydiff.Res) anydiff.Res {
			joined := anydiff.Concat(in, anydiff.Slice(left, n, 2*n),
				anydiff.Slice(right, n, 2*n))
			gates := c.Gates.Apply(joined, 1)
			return anydiff.Pool(gates, func(gates anydiff.Res) anydiff.Res {
				block := func(idx int) anydiff.Res {
					return anydiff.Slice(gates, idx*n, (idx+1)*n)
				}
				forget := func(idx int) anydiff.Res {
					gate := block(idx)
					if c.ForgetBias != 0 {
						bias := gate.Output().Creator().MakeNumeric(c.ForgetBias)
						gate = anydiff.AddScalar(gate, bias)
					}
					return Sigmoid.Apply(gate, 1)
				}
				candidate := Tanh.Apply(block(gateCandidate), 1)
				if c.Dropout != nil {
					candidate = c.Dropout.Apply(candidate, 1)
				}
				memory := anydiff.Add(
					anydiff.Add(
						anydiff.Mul(forget(gateForgetLeft),
							anydiff.Slice(left, 0, n)),
						anydiff.Mul(forget(gateForgetRight),
							anydiff.Slice(right, 0, n)),
					),
					anydiff.Mul(Sigmoid.Apply(block(gateIn), 1), candidate),
				)
				outGate := Sigmoid.Apply(block(gateOut), 1)
				return anydiff.Pool(memory, func(memory anydiff.Res) anydiff.Res {
					hidden := anydiff.Mul(outGate, Tanh.Apply(memory, 1))
					return anydiff.Concat(memory, hidden)
				})
			})
		})
	})
}

// Hidden extracts the hidden output h from a state.
func (c *Cell) Hidden(state anydiff.Res) anydiff.Res {
	return anydiff.Slice(state, c.StateSize, 2*c.StateSize)
}

// Parameters returns the parameters of the cell.
func (c *Cell) Parameters() []*anydiff.Var {
	return c.Gates.Parameters()
}

// SerializerType returns the unique ID used to serialize
// a Cell with the serializer package.
func (c *Cell) SerializerType() string {
	return "github.com/unixpickle/treelstm.Cell"
}

// Serialize serializes the Cell.
func (c *Cell) Serialize() ([]byte, error) {
	dropout := c.Dropout
	hasDropout := serializer.Int(1)
	if dropout == nil {
		dropout = &Dropout{KeepProb: 1}
		hasDropout = 0
	}
	return serializer.SerializeAny(c.Gates, serializer.Float64(c.ForgetBias), hasDropout,
		dropout)
}

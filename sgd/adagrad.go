package sgd

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

const (
	adagradDefaultInitial = 0.1
	adagradDefaultDamping = 1e-8
)

// Adagrad implements the adaptive subgradient method of
// http://jmlr.org/papers/v12/duchi11a.html.
//
// Every component is divided by the square root of the
// sum of its past squared gradients.
type Adagrad struct {
	// InitialAccumulator is the starting value of every
	// sum of squares.
	// If it is 0, a default of 0.1 is used.
	InitialAccumulator float64

	// Damping is used to prevent divisions by zero.
	// If it is 0, a default is used.
	Damping float64

	squares anydiff.Grad
}

// Transform transforms the gradient using Adagrad.
//
// This is not thread-safe.
func (a *Adagrad) Transform(realGrad anydiff.Grad) anydiff.Grad {
	if a.squares == nil {
		a.squares = anydiff.Grad{}
		initial := valueOrDefault(a.InitialAccumulator, adagradDefaultInitial)
		for v, grad := range realGrad {
			acc := grad.Creator().MakeVector(grad.Len())
			acc.AddScalar(acc.Creator().MakeNumeric(initial))
			a.squares[v] = acc
		}
	}
	damping := valueOrDefault(a.Damping, adagradDefaultDamping)
	for v, grad := range realGrad {
		sq := grad.Copy()
		anyvec.Pow(sq, sq.Creator().MakeNumeric(2))
		acc := a.squares[v]
		acc.Add(sq)

		div := acc.Copy()
		div.AddScalar(div.Creator().MakeNumeric(damping))
		anyvec.Pow(div, div.Creator().MakeNumeric(-0.5))
		grad.Mul(div)
	}
	return realGrad
}

// MarshalState encodes the accumulated squares.
func (a *Adagrad) MarshalState(vars []*anydiff.Var) ([]byte, error) {
	data, err := marshalGradient(vars, a.squares)
	if err != nil {
		return nil, essentials.AddCtx("marshal Adagrad", err)
	}
	return data, nil
}

// UnmarshalState restores the state saved by
// MarshalState.
func (a *Adagrad) UnmarshalState(vars []*anydiff.Var, data []byte) error {
	squares, err := unmarshalGradient(vars, data)
	if err != nil {
		return essentials.AddCtx("unmarshal Adagrad", err)
	}
	a.squares = squares
	return nil
}

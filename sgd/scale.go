package sgd

import "github.com/unixpickle/anydiff"

// A VarScaler multiplies the gradients of some variables
// by per-variable factors.
//
// It can be used to give some parameters, such as a word
// embedding table, a smaller learning rate than others.
type VarScaler map[*anydiff.Var]float64

// Transform scales the gradient in place.
func (v VarScaler) Transform(g anydiff.Grad) anydiff.Grad {
	for variable, scale := range v {
		if vec, ok := g[variable]; ok {
			vec.Scale(vec.Creator().MakeNumeric(scale))
		}
	}
	return g
}

// A Chain applies Transformers in order.
type Chain []Transformer

// Transform applies every Transformer.
func (c Chain) Transform(g anydiff.Grad) anydiff.Grad {
	for _, t := range c {
		g = t.Transform(g)
	}
	return g
}

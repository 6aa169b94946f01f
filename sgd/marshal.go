package sgd

import (
	"errors"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/serializer"
)

var errVarsGradMismatch = errors.New("variable list does not match gradients")

func marshalGradient(vars []*anydiff.Var, grad anydiff.Grad) ([]byte, error) {
	if grad == nil {
		return []byte{}, nil
	}
	objs, err := gradObjects(vars, grad)
	if err != nil {
		return nil, err
	}
	return serializer.SerializeAny(objs...)
}

func unmarshalGradient(vars []*anydiff.Var, data []byte) (anydiff.Grad, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dests := gradDests(vars)
	if err := serializer.DeserializeAny(data, dests...); err != nil {
		return nil, err
	}
	return destsGrad(vars, dests)
}

// gradObjects lists the vectors of a gradient in the
// order of vars, ready for serializer.SerializeAny.
func gradObjects(vars []*anydiff.Var, grad anydiff.Grad) ([]interface{}, error) {
	if len(vars) != len(grad) {
		return nil, errVarsGradMismatch
	}
	var res []interface{}
	for _, v := range vars {
		vec, ok := grad[v]
		if !ok {
			return nil, errVarsGradMismatch
		}
		res = append(res, &anyvecsave.S{Vector: vec})
	}
	return res, nil
}

// gradDests creates serializer.DeserializeAny destinations
// for a gradient encoded by gradObjects.
func gradDests(vars []*anydiff.Var) []interface{} {
	var res []interface{}
	for range vars {
		res = append(res, new(*anyvecsave.S))
	}
	return res
}

func destsGrad(vars []*anydiff.Var, dests []interface{}) (anydiff.Grad, error) {
	res := anydiff.Grad{}
	for i, v := range vars {
		vec := (*dests[i].(**anyvecsave.S)).Vector
		if vec.Creator() != v.Vector.Creator() {
			return nil, errors.New("bad vector creator")
		} else if vec.Len() != v.Vector.Len() {
			return nil, errors.New("bad vector length")
		}
		res[v] = vec
	}
	return res, nil
}

// Package treelstm implements tree-structured LSTMs for
// sentiment classification over binary parse trees.
//
// A Model evaluates one tree at a time, building a
// computation graph whose shape follows the tree.
// Gradients come from the anydiff package, so any tree
// shape can be trained without a static graph.
package treelstm

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var n Net
	serializer.RegisterTypedDeserializer(n.SerializerType(), DeserializeNet)
}

// A Parameterizer has learnable variables, which it
// always lists in the same order.
type Parameterizer interface {
	Parameters() []*anydiff.Var
}

// A Layer maps a packed batch of equally sized vectors to
// another packed batch.
type Layer interface {
	Apply(in anydiff.Res, batchSize int) anydiff.Res
}

// A Net is a stack of layers applied in order.
// Models use it for their output head.
type Net []Layer

// DeserializeNet deserializes a Net.
func DeserializeNet(d []byte) (Net, error) {
	objs, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Net", err)
	}
	var res Net
	for i, obj := range objs {
		layer, ok := obj.(Layer)
		if !ok {
			return nil, fmt.Errorf("deserialize Net: layer %d is a %T", i, obj)
		}
		res = append(res, layer)
	}
	return res, nil
}

// Apply feeds the batch through every layer.
func (n Net) Apply(in anydiff.Res, batchSize int) anydiff.Res {
	out := in
	for _, layer := range n {
		out = layer.Apply(out, batchSize)
	}
	return out
}

// Parameters concatenates the parameters of the layers.
func (n Net) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, layer := range n {
		if p, ok := layer.(Parameterizer); ok {
			res = append(res, p.Parameters()...)
		}
	}
	return res
}

// SetDropout enables or disables the Dropout layers.
func (n Net) SetDropout(enabled bool) {
	for _, layer := range n {
		if d, ok := layer.(*Dropout); ok {
			d.Enabled = enabled
		}
	}
}

// SerializerType returns the unique ID used to serialize
// a Net with the serializer package.
func (n Net) SerializerType() string {
	return "github.com/unixpickle/treelstm.Net"
}

// Serialize serializes the layers, each of which must
// implement serializer.Serializer.
func (n Net) Serialize() ([]byte, error) {
	objs := make([]serializer.Serializer, len(n))
	for i, layer := range n {
		s, ok := layer.(serializer.Serializer)
		if !ok {
			return nil, fmt.Errorf("serialize Net: layer %d (%T) is not serializable", i, layer)
		}
		objs[i] = s
	}
	return serializer.SerializeSlice(objs)
}

package treelstm

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/serializer"
)

func init() {
	var a Activation
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeActivation)
}

// An Activation is an element-wise or per-vector
// nonlinearity.
type Activation int

// Supported activations.
const (
	Tanh Activation = iota
	Sigmoid
	LogSoftmax
)

var activationNames = []string{"tanh", "sigmoid", "logsoftmax"}

// DeserializeActivation decodes an Activation from its
// name.
func DeserializeActivation(d []byte) (Activation, error) {
	for i, name := range activationNames {
		if name == string(d) {
			return Activation(i), nil
		}
	}
	return 0, fmt.Errorf("deserialize Activation: unknown name %q", d)
}

// Apply applies the activation to a batch of n vectors.
// LogSoftmax normalizes each vector separately.
func (a Activation) Apply(in anydiff.Res, n int) anydiff.Res {
	switch a {
	case Tanh:
		return anydiff.Tanh(in)
	case Sigmoid:
		return anydiff.Sigmoid(in)
	case LogSoftmax:
		size := in.Output().Len()
		if size%n != 0 {
			panic(fmt.Sprintf("batch size %d does not divide input length %d", n, size))
		}
		return anydiff.LogSoftmax(in, size/n)
	}
	panic("unknown activation: " + a.String())
}

func (a Activation) String() string {
	if a < 0 || int(a) >= len(activationNames) {
		return fmt.Sprintf("Activation(%d)", int(a))
	}
	return activationNames[a]
}

// SerializerType returns the unique ID used to serialize
// an Activation with the serializer package.
func (a Activation) SerializerType() string {
	return "github.com/unixpickle/treelstm.Activation"
}

// Serialize encodes the activation's name.
func (a Activation) Serialize() ([]byte, error) {
	if a < 0 || int(a) >= len(activationNames) {
		return nil, fmt.Errorf("serialize Activation: unknown activation %d", int(a))
	}
	return []byte(activationNames[a]), nil
}

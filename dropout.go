package treelstm

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var d Dropout
	serializer.RegisterTypedDeserializer(d.SerializerType(), DeserializeDropout)
}

// Dropout zeroes each component with probability
// 1-KeepProb while Enabled.
// While disabled, it scales its input by KeepProb, which
// is the expected output of the enabled layer.
//
// Enabled is read on every Apply, so it must not be
// toggled while trees are being evaluated.
type Dropout struct {
	Enabled  bool
	KeepProb float64
}

// DeserializeDropout deserializes a Dropout.
// The result is disabled, ready for inference.
func DeserializeDropout(d []byte) (*Dropout, error) {
	var keepProb serializer.Float64
	if err := serializer.DeserializeAny(d, &keepProb); err != nil {
		return nil, essentials.AddCtx("deserialize Dropout", err)
	}
	return &Dropout{KeepProb: float64(keepProb)}, nil
}

// Apply applies the layer.
// A KeepProb of 1 makes the layer an identity.
func (d *Dropout) Apply(in anydiff.Res, n int) anydiff.Res {
	c := in.Output().Creator()
	switch {
	case d.KeepProb == 1:
		return in
	case !d.Enabled:
		return anydiff.Scale(in, c.MakeNumeric(d.KeepProb))
	}
	keep := c.MakeVector(in.Output().Len())
	anyvec.Rand(keep, anyvec.Uniform, nil)
	anyvec.LessThan(keep, c.MakeNumeric(d.KeepProb))
	return anydiff.Mul(in, anydiff.NewConst(keep))
}

// SerializerType returns the unique ID used to serialize
// a Dropout with the serializer package.
func (d *Dropout) SerializerType() string {
	return "github.com/unixpickle/treelstm.Dropout"
}

// Serialize serializes the keep probability.
func (d *Dropout) Serialize() ([]byte, error) {
	return serializer.SerializeAny(serializer.Float64(d.KeepProb))
}

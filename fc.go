package treelstm

import (
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var f FC
	serializer.RegisterTypedDeserializer(f.SerializerType(), DeserializeFC)
}

// FC is a fully-connected layer computing W*x + b for
// every vector x in a batch.
//
// Weights is a row-major OutCount x InCount matrix.
type FC struct {
	InCount  int
	OutCount int
	Weights  *anydiff.Var
	Biases   *anydiff.Var
}

// DeserializeFC deserializes an FC.
func DeserializeFC(d []byte) (*FC, error) {
	var inCount serializer.Int
	var weights, biases *anyvecsave.S
	if err := serializer.DeserializeAny(d, &inCount, &weights, &biases); err != nil {
		return nil, essentials.AddCtx("deserialize FC", err)
	}
	res := &FC{
		InCount:  int(inCount),
		OutCount: biases.Vector.Len(),
		Weights:  anydiff.NewVar(weights.Vector),
		Biases:   anydiff.NewVar(biases.Vector),
	}
	if res.InCount <= 0 || res.InCount*res.OutCount != weights.Vector.Len() {
		return nil, fmt.Errorf("deserialize FC: %d weights do not form a %dx%d matrix",
			weights.Vector.Len(), res.OutCount, res.InCount)
	}
	return res, nil
}

// NewFC creates an FC with zero biases and normally
// distributed weights of variance 1/in.
func NewFC(c anyvec.Creator, in, out int) *FC {
	res := NewFCZero(c, in, out)
	weights := res.Weights.Vector
	anyvec.Rand(weights, anyvec.Normal, nil)
	weights.Scale(c.MakeNumeric(1 / math.Sqrt(float64(in))))
	return res
}

// NewFCZero creates an FC whose parameters are all zero.
func NewFCZero(c anyvec.Creator, in, out int) *FC {
	return &FC{
		InCount:  in,
		OutCount: out,
		Weights:  anydiff.NewVar(c.MakeVector(in * out)),
		Biases:   anydiff.NewVar(c.MakeVector(out)),
	}
}

// Apply applies the layer to a packed batch.
func (f *FC) Apply(in anydiff.Res, batch int) anydiff.Res {
	if n := in.Output().Len(); n != batch*f.InCount {
		panic(fmt.Sprintf("FC input length should be %d, but got %d", batch*f.InCount, n))
	}
	product := anydiff.MatMul(false, true,
		&anydiff.Matrix{Data: in, Rows: batch, Cols: f.InCount},
		&anydiff.Matrix{Data: f.Weights, Rows: f.OutCount, Cols: f.InCount})
	return anydiff.AddRepeated(product.Data, f.Biases)
}

// Parameters returns the weights followed by the biases.
func (f *FC) Parameters() []*anydiff.Var {
	return []*anydiff.Var{f.Weights, f.Biases}
}

// SerializerType returns the unique ID used to serialize
// an FC with the serializer package.
func (f *FC) SerializerType() string {
	return "github.com/unixpickle/treelstm.FC"
}

// Serialize serializes the FC.
func (f *FC) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(f.InCount),
		&anyvecsave.S{Vector: f.Weights.Vector},
		&anyvecsave.S{Vector: f.Biases.Vector},
	)
}

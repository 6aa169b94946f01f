package treelstm

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var e Embedding
	serializer.RegisterTypedDeserializer(e.SerializerType(), DeserializeEmbedding)
}

// An Embedding maps word indices to learned vectors.
//
// Rather than slicing the table inside the graph, which
// would produce a table-sized gradient for every word,
// Lookup returns a fresh variable for each use.
// Gradients for those variables are gathered into a
// RowGrad and folded back with DenseGrad.
type Embedding struct {
	Dim   int
	Table *anydiff.Var

	// Frozen indicates that the table should not be
	// trained.
	Frozen bool
}

// DeserializeEmbedding deserializes an Embedding.
func DeserializeEmbedding(d []byte) (*Embedding, error) {
	var table *anyvecsave.S
	var dim, frozen serializer.Int
	if err := serializer.DeserializeAny(d, &table, &dim, &frozen); err != nil {
		return nil, essentials.AddCtx("deserialize Embedding", err)
	}
	if dim <= 0 || table.Vector.Len()%int(dim) != 0 {
		return nil, errors.New("deserialize Embedding: invalid dimensions")
	}
	return &Embedding{
		Dim:    int(dim),
		Table:  anydiff.NewVar(table.Vector),
		Frozen: frozen == 1,
	}, nil
}

// NewEmbedding wraps a row-major table with dim columns.
func NewEmbedding(table anyvec.Vector, dim int) *Embedding {
	if dim <= 0 || table.Len()%dim != 0 {
		panic(fmt.Sprintf("table length %d not divisible by dimension %d",
			table.Len(), dim))
	}
	return &Embedding{Dim: dim, Table: anydiff.NewVar(table)}
}

// NewEmbeddingRand creates a table of normally distributed
// rows, scaled by 1/sqrt(dim).
func NewEmbeddingRand(c anyvec.Creator, rows, dim int) *Embedding {
	table := c.MakeVector(rows * dim)
	anyvec.Rand(table, anyvec.Normal, nil)
	table.Scale(c.MakeNumeric(1 / math.Sqrt(float64(dim))))
	return NewEmbedding(table, dim)
}

// Rows returns the number of rows in the table.
func (e *Embedding) Rows() int {
	return e.Table.Vector.Len() / e.Dim
}

// Lookup returns a new variable holding a copy of the row
// at idx.
func (e *Embedding) Lookup(idx int) *anydiff.Var {
	if idx < 0 || idx >= e.Rows() {
		panic(fmt.Sprintf("embedding row %d out of range [0, %d)", idx, e.Rows()))
	}
	return anydiff.NewVar(e.Table.Vector.Slice(idx*e.Dim, (idx+1)*e.Dim))
}

// DenseGrad expands row gradients into a gradient for the
// entire table.
func (e *Embedding) DenseGrad(rows RowGrad) anyvec.Vector {
	c := e.Table.Vector.Creator()
	data := make([]float64, e.Table.Vector.Len())
	for idx, grad := range rows {
		copy(data[idx*e.Dim:(idx+1)*e.Dim], Floats(grad))
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}

// SerializerType returns the unique ID used to serialize
// an Embedding with the serializer package.
func (e *Embedding) SerializerType() string {
	return "github.com/unixpickle/treelstm.Embedding"
}

// Serialize serializes the Embedding.
func (e *Embedding) Serialize() ([]byte, error) {
	frozen := serializer.Int(0)
	if e.Frozen {
		frozen = 1
	}
	return serializer.SerializeAny(&anyvecsave.S{Vector: e.Table.Vector},
		serializer.Int(e.Dim), frozen)
}

// A RowGrad accumulates gradients for embedding rows,
// keyed by row index.
type RowGrad map[int]anyvec.Vector

// Add adds a row gradient.
// The vector is copied, so the caller may reuse it.
func (r RowGrad) Add(idx int, grad anyvec.Vector) {
	if existing, ok := r[idx]; ok {
		existing.Add(grad)
	} else {
		r[idx] = grad.Copy()
	}
}

// Merge adds every row of other into r.
func (r RowGrad) Merge(other RowGrad) {
	for idx, grad := range other {
		r.Add(idx, grad)
	}
}

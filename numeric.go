package treelstm

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// Floats converts the contents of a vector to float64s.
//
// Only float32 and float64 vectors are supported.
func Floats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}

// Float converts a numeric to a float64.
func Float(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic(fmt.Sprintf("unsupported numeric: %T", n))
	}
}

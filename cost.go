package treelstm

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Cost measures the error in a batch of network
// outputs.
//
// It takes a packed batch of desired outputs and actual
// outputs, and produces a batch of costs.
type Cost interface {
	Cost(desired, actual anydiff.Res, n int) anydiff.Res
}

// DotCost computes the cost by taking the dot product of
// the desired and actual outputs, and then negating it.
//
// This is meant to be used with LogSoftmax outputs and
// one-hot desired outputs, in which case the result is the
// cross-entropy loss for each vector in the batch.
type DotCost struct{}

// Cost takes the dot product of each actual output with
// each desired output, negates it, and uses that as the
// cost.
func (d DotCost) Cost(desired, actual anydiff.Res, n int) anydiff.Res {
	comb := anydiff.Mul(desired, actual)
	dots := anydiff.SumCols(&anydiff.Matrix{
		Data: comb,
		Rows: n,
		Cols: comb.Output().Len() / n,
	})
	return anydiff.Scale(dots, dots.Output().Creator().MakeNumeric(-1))
}

// OneHot packs one-hot vectors for the labels into a
// single vector with numClasses components per label.
func OneHot(c anyvec.Creator, labels []int, numClasses int) anyvec.Vector {
	data := make([]float64, len(labels)*numClasses)
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			panic(fmt.Sprintf("label %d out of range [0, %d)", label, numClasses))
		}
		data[i*numClasses+label] = 1
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}

// L2Penalty computes Penalty/2 times the sum of the
// squares of every parameter.
//
// The result is a one-component vector.
// A nil result is returned when there is nothing to
// penalize.
func L2Penalty(params []*anydiff.Var, penalty float64) anydiff.Res {
	if penalty == 0 || len(params) == 0 {
		return nil
	}
	var sum anydiff.Res
	for _, p := range params {
		sq := anydiff.Sum(anydiff.Square(p))
		if sum == nil {
			sum = sq
		} else {
			sum = anydiff.Add(sum, sq)
		}
	}
	return anydiff.Scale(sum, sum.Output().Creator().MakeNumeric(penalty/2))
}

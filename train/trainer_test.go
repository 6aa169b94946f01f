package train

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/sgd"
)

func testTrees() SampleList {
	return SampleList{
		{
			Label: 3,
			Left:  &treelstm.Node{Label: 2, Word: 0},
			Right: &treelstm.Node{Label: 4, Word: 1},
		},
		{
			Label: 0,
			Left:  &treelstm.Node{Label: 1, Word: 2},
			Right: &treelstm.Node{
				Label: 0,
				Left:  &treelstm.Node{Label: 2, Word: 3},
				Right: &treelstm.Node{Label: 0, Word: 2},
			},
		},
		{Label: 4, Word: 1},
		{
			Label: 1,
			Left:  &treelstm.Node{Label: 1, Word: 4},
		},
	}
}

func testModel() *treelstm.Model {
	table := treelstm.NewEmbeddingRand(anyvec64.DefaultCreator{}, 5, 3).Table.Vector
	return treelstm.NewModel(table, 3, treelstm.ModelConfig{StateSize: 4, KeepProb: 1,
		ForgetBias: treelstm.DefaultForgetBias})
}

func TestTrainerConcurrency(t *testing.T) {
	model := testModel()
	serial := &Trainer{Model: model, MaxGos: 1}
	parallel := &Trainer{Model: model, MaxGos: 3}

	g1 := serial.Gradient(testTrees())
	g2 := parallel.Gradient(testTrees())

	if math.Abs(serial.LastCost-parallel.LastCost) > 1e-8 {
		t.Errorf("cost mismatch: %f vs %f", serial.LastCost, parallel.LastCost)
	}
	if len(g1) != len(g2) || len(g1) != len(model.TrainableParameters()) {
		t.Fatalf("unexpected gradient sizes: %d and %d", len(g1), len(g2))
	}
	for v, vec := range g1 {
		if !vectorsClose(treelstm.Floats(vec), treelstm.Floats(g2[v]), 1e-8) {
			t.Errorf("gradient mismatch for variable of size %d", v.Vector.Len())
		}
	}
}

func TestTrainerAverage(t *testing.T) {
	model := testModel()
	sum := &Trainer{Model: model}
	avg := &Trainer{Model: model, Average: true}
	trees := testTrees()

	g1 := sum.Gradient(trees)
	g2 := avg.Gradient(trees)

	n := float64(len(trees))
	if math.Abs(sum.LastCost/n-avg.LastCost) > 1e-8 {
		t.Errorf("expected cost %f but got %f", sum.LastCost/n, avg.LastCost)
	}
	for v, vec := range g1 {
		expected := treelstm.Floats(vec)
		for i := range expected {
			expected[i] /= n
		}
		if !vectorsClose(expected, treelstm.Floats(g2[v]), 1e-8) {
			t.Error("averaged gradient mismatch")
		}
	}
}

func TestTrainerEmbedding(t *testing.T) {
	model := testModel()
	trees := testTrees()
	grad := (&Trainer{Model: model}).Gradient(trees)

	// The table gradient must match the gradient obtained
	// by back-propagating through every row variable.
	rows := treelstm.RowGrad{}
	for _, tree := range trees {
		res := model.Apply(tree)
		g := anydiff.Grad{}
		for _, row := range res.Rows {
			g[row.Var] = row.Var.Vector.Creator().MakeVector(3)
		}
		cost := res.Cost()
		c := cost.Output().Creator()
		cost.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{1})), g)
		for _, row := range res.Rows {
			rows.Add(row.Index, g[row.Var])
		}
	}
	expected := model.Embedding.DenseGrad(rows)
	actual := grad[model.Embedding.Table]
	if !vectorsClose(treelstm.Floats(expected), treelstm.Floats(actual), 1e-8) {
		t.Error("embedding gradient mismatch")
	}

	model.Embedding.Frozen = true
	grad = (&Trainer{Model: model}).Gradient(trees)
	if _, ok := grad[model.Embedding.Table]; ok {
		t.Error("frozen table should not be in the gradient")
	}
}

func TestTrainerWeightDecay(t *testing.T) {
	model := testModel()
	model.Embedding.Frozen = true
	plain := &Trainer{Model: model}
	decayed := &Trainer{Model: model, WeightDecay: 0.1}
	trees := testTrees()

	g1 := plain.Gradient(trees)
	g2 := decayed.Gradient(trees)

	var sqNorm float64
	for _, p := range model.Parameters() {
		params := treelstm.Floats(p.Vector)
		expected := treelstm.Floats(g1[p])
		for i, x := range params {
			expected[i] += 0.1 * x
			sqNorm += x * x
		}
		if !vectorsClose(expected, treelstm.Floats(g2[p]), 1e-8) {
			t.Error("weight decay gradient mismatch")
		}
	}
	if math.Abs(plain.LastCost+0.05*sqNorm-decayed.LastCost) > 1e-8 {
		t.Errorf("unexpected decayed cost %f", decayed.LastCost)
	}
}

func TestTrainerReducesLoss(t *testing.T) {
	model := testModel()
	trees := testTrees()
	before := Evaluate(model, trees, 0).Loss

	s := &sgd.SGD{
		Gradienter:  &Trainer{Model: model, Average: true},
		Transformer: &sgd.Adagrad{},
		Samples:     trees.Slice(0, len(trees)),
		Rater:       sgd.ConstRater(0.1),
		BatchSize:   2,
	}
	for i := 0; i < 50; i++ {
		s.Epoch(sgd.StopFunc(func() bool { return false }))
	}

	after := Evaluate(model, trees, 0).Loss
	if after >= before {
		t.Errorf("loss did not decrease: %f -> %f", before, after)
	}
}

func vectorsClose(v1, v2 []float64, eps float64) bool {
	if len(v1) != len(v2) {
		return false
	}
	for i, x := range v1 {
		if math.Abs(x-v2[i]) > eps {
			return false
		}
	}
	return true
}

package treelstm

import (
	"math"
	"reflect"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// testTree is (3 (1 w0) (4 (2 w1) (4 w2))).
func testTree() *Node {
	return &Node{
		Label: 3,
		Left:  &Node{Label: 1, Word: 0},
		Right: &Node{
			Label: 4,
			Left:  &Node{Label: 2, Word: 1},
			Right: &Node{Label: 4, Word: 2},
		},
	}
}

func testModel(c anyvec.Creator) *Model {
	return NewModel(NewEmbeddingRand(c, 4, 3).Table.Vector, 3,
		ModelConfig{StateSize: 2, KeepProb: 1, ForgetBias: DefaultForgetBias})
}

func TestModelForgetBias(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	table := NewEmbeddingRand(c, 4, 3).Table.Vector
	for _, fb := range []float64{0, 2} {
		model := NewModel(table, 3, ModelConfig{StateSize: 2, KeepProb: 1, ForgetBias: fb})
		if model.Cell.ForgetBias != fb {
			t.Errorf("expected forget bias %f but got %f", fb, model.Cell.ForgetBias)
		}
		biases := model.Cell.Gates.Biases.Vector.Data().([]float64)
		for i := gateForgetLeft * 2; i < (gateForgetRight+1)*2; i++ {
			if biases[i] != 0 {
				t.Errorf("fb=%f: trainable forget bias %d is %f", fb, i, biases[i])
			}
		}
	}
}

func TestNodeLabels(t *testing.T) {
	tree := testTree()
	if n := tree.NumNodes(); n != 5 {
		t.Errorf("expected 5 nodes but got %d", n)
	}
	expected := []int{1, 2, 4, 4, 3}
	if actual := tree.Labels(); !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestModelApply(t *testing.T) {
	model := testModel(anyvec64.DefaultCreator{})
	res := model.Apply(testTree())

	if res.NumNodes() != 5 {
		t.Fatalf("expected 5 nodes but got %d", res.NumNodes())
	}
	if res.Logits.Output().Len() != 5*NumClasses {
		t.Fatalf("bad logit count: %d", res.Logits.Output().Len())
	}
	var words []int
	for _, row := range res.Rows {
		words = append(words, row.Index)
	}
	if !reflect.DeepEqual(words, []int{0, 1, 2}) {
		t.Errorf("unexpected rows: %v", words)
	}
	for i, probs := range res.Probabilities() {
		var sum float64
		for _, p := range probs {
			sum += p
		}
		if math.Abs(sum-1) > 1e-8 {
			t.Errorf("node %d: probabilities sum to %f", i, sum)
		}
	}
	if len(res.Predictions()) != 5 {
		t.Error("bad prediction count")
	}
}

// TestModelLeafOrder checks that a leaf's logits only
// depend on its own word.
func TestModelLeafOrder(t *testing.T) {
	model := testModel(anyvec64.DefaultCreator{})
	full := Floats(model.Apply(testTree()).Logits.Output())
	leaf := Floats(model.Apply(&Node{Label: 4, Word: 2}).Logits.Output())
	// The w2 leaf is the third node in post-order.
	for i, x := range leaf {
		if math.Abs(x-full[2*NumClasses+i]) > 1e-8 {
			t.Fatalf("logit %d: expected %f but got %f", i, x, full[2*NumClasses+i])
		}
	}
}

func TestModelProp(t *testing.T) {
	model := testModel(anyvec64.DefaultCreator{})
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return model.Apply(testTree()).Cost()
		},
		V: model.Parameters(),
	}
	checker.FullCheck(t)
}

// TestModelRowGrads checks sparse embedding gradients
// against the same cost written with table slices.
func TestModelRowGrads(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := testModel(c)
	tree := testTree()

	res := model.Apply(tree)
	grad := anydiff.NewGrad()
	for _, row := range res.Rows {
		grad[row.Var] = c.MakeVector(row.Var.Vector.Len())
	}
	res.Cost().Propagate(c.MakeVectorData([]float64{1}), grad)
	rows := RowGrad{}
	for _, row := range res.Rows {
		rows.Add(row.Index, grad[row.Var])
	}
	actual := Floats(model.Embedding.DenseGrad(rows))

	expected := numericTableGrad(model, tree)
	for i, x := range expected {
		if math.Abs(x-actual[i]) > 1e-4 {
			t.Errorf("component %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func numericTableGrad(model *Model, tree *Node) []float64 {
	const delta = 1e-5
	table := model.Embedding.Table.Vector
	c := table.Creator()
	data := Floats(table)
	original := append([]float64{}, data...)
	cost := func() float64 {
		return Floats(model.Apply(tree).Cost().Output())[0]
	}
	res := make([]float64, len(data))
	for i := range data {
		tmp := append([]float64{}, original...)
		tmp[i] += delta
		table.SetData(c.MakeNumericList(tmp))
		plus := cost()
		tmp[i] -= 2 * delta
		table.SetData(c.MakeNumericList(tmp))
		minus := cost()
		res[i] = (plus - minus) / (2 * delta)
	}
	table.SetData(c.MakeNumericList(original))
	return res
}

func TestRowGrad(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	emb := NewEmbedding(c.MakeVector(6), 2)
	rows := RowGrad{}
	g := c.MakeVectorData([]float64{1, 2})
	rows.Add(2, g)
	rows.Add(2, g)
	other := RowGrad{0: c.MakeVectorData([]float64{-1, 3})}
	rows.Merge(other)

	actual := Floats(emb.DenseGrad(rows))
	expected := []float64{-1, 3, 0, 0, 2, 4}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
	if Floats(g)[0] != 1 {
		t.Error("Add modified its argument")
	}
}

func TestModelTraining(t *testing.T) {
	model := NewModel(NewEmbeddingRand(anyvec64.DefaultCreator{}, 4, 3).Table.Vector, 3,
		ModelConfig{StateSize: 2, KeepProb: 0.5})
	model.SetTraining(true)
	if !model.InputDropout.Enabled || !model.Cell.Dropout.Enabled {
		t.Error("dropout should be enabled")
	}
	model.SetTraining(false)
	if model.Output[0].(*Dropout).Enabled {
		t.Error("output dropout should be disabled")
	}
	if len(model.TrainableParameters()) != len(model.Parameters())+1 {
		t.Error("embedding table should be trainable")
	}
}

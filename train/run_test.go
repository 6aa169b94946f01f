package train

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/sgd"
)

func testRunner(t *testing.T, dir string, epochs int) *Runner {
	c, err := OpenCheckpointDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	trees := testTrees()
	return &Runner{
		Trainer:         &Trainer{Model: testModel(), Average: true},
		Optimizer:       &sgd.Adagrad{},
		Checkpoints:     c,
		Train:           trees,
		Dev:             trees[:2],
		Test:            trees[2:],
		LearningRate:    0.05,
		EmbeddingFactor: 0.1,
		BatchSize:       2,
		Epochs:          epochs,
		LogInterval:     1,
	}
}

func TestRunnerResume(t *testing.T) {
	dir := t.TempDir()
	never := sgd.StopFunc(func() bool { return false })

	r := testRunner(t, dir, 2)
	summary, err := r.Run(never)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Epoch != 2 || len(summary.Epochs) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.NumProcessed != 2*len(testTrees()) {
		t.Errorf("unexpected sample count %d", summary.NumProcessed)
	}
	if summary.Test == nil || summary.Test.Trees != 2 {
		t.Errorf("unexpected test metrics: %+v", summary.Test)
	}
	for _, name := range []string{LatestModelFile, BestModelFile, OptimizerFile, SummaryFile} {
		if !r.Checkpoints.Exists(name) {
			t.Errorf("missing %s", name)
		}
	}
	r.Checkpoints.Close()

	saved, err := LoadModel(filepath.Join(dir, LatestModelFile))
	if err != nil {
		t.Fatal(err)
	}
	savedState, err := os.ReadFile(filepath.Join(dir, OptimizerFile))
	if err != nil {
		t.Fatal(err)
	}

	// With no epochs left, the restored state is left as is.
	r = testRunner(t, dir, 2)
	if _, err := r.Run(never); err != nil {
		t.Fatal(err)
	}
	params := r.Trainer.Model.TrainableParameters()
	savedParams := saved.TrainableParameters()
	if len(params) != len(savedParams) {
		t.Fatalf("expected %d parameters but got %d", len(savedParams), len(params))
	}
	for i, p := range params {
		if !vectorsClose(treelstm.Floats(p.Vector), treelstm.Floats(savedParams[i].Vector), 0) {
			t.Errorf("parameter %d was not restored", i)
		}
	}
	state, err := r.Optimizer.MarshalState(r.optimizerVars())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(state, savedState) {
		t.Error("optimizer state was not restored")
	}
	r.Checkpoints.Close()

	r = testRunner(t, dir, 3)
	resumed, err := r.Run(never)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.RunID != summary.RunID {
		t.Error("run ID changed on resume")
	}
	if resumed.Epoch != 3 || len(resumed.Epochs) != 3 {
		t.Errorf("unexpected resumed summary: %+v", resumed)
	}
}

func TestRunnerInterrupt(t *testing.T) {
	r := testRunner(t, t.TempDir(), 5)
	summary, err := r.Run(sgd.StopFunc(func() bool { return true }))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Epoch != 0 || summary.BestEpoch != 0 {
		t.Errorf("no epoch should finish: %+v", summary)
	}
	if summary.Test == nil {
		t.Error("test set should still be evaluated")
	}
}

func TestRunnerEmbeddingFactor(t *testing.T) {
	r := testRunner(t, t.TempDir(), 1)
	model := r.Trainer.Model
	grad := anydiff.NewGrad(model.TrainableParameters()...)
	for _, vec := range grad {
		ones := make([]float64, vec.Len())
		for i := range ones {
			ones[i] = 1
		}
		vec.Set(vec.Creator().MakeVectorData(ones))
	}
	step := r.transformer().Transform(grad)

	// The factor scales the optimizer's step, not the
	// gradient it accumulates.
	dense := 1 / math.Sqrt(0.1+1)
	for v, vec := range step {
		expected := dense
		if v == model.Embedding.Table {
			expected *= r.EmbeddingFactor
		}
		for _, x := range treelstm.Floats(vec) {
			if math.Abs(x-expected) > 1e-6 {
				t.Fatalf("expected step %f but got %f", expected, x)
			}
		}
	}
}

package train

import (
	"os"
	"reflect"
	"testing"

	"github.com/unixpickle/treelstm"
)

func TestCheckpointLock(t *testing.T) {
	dir := t.TempDir()
	c1, err := OpenCheckpointDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := OpenCheckpointDir(dir); err != ErrLocked {
		t.Errorf("expected ErrLocked but got %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatal(err)
	}
	c2, err := OpenCheckpointDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	c2.Close()
}

func TestCheckpointFiles(t *testing.T) {
	c, err := OpenCheckpointDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if s, err := c.LoadSummary(); err != nil || s != nil {
		t.Fatalf("expected no summary, got %v (%v)", s, err)
	}
	if data, err := c.LoadOptimizer(); err != nil || data != nil {
		t.Fatalf("expected no optimizer state, got %v (%v)", data, err)
	}

	model := testModel()
	if err := c.SaveModel(LatestModelFile, model); err != nil {
		t.Fatal(err)
	}
	loaded, err := c.LoadModel(LatestModelFile)
	if err != nil {
		t.Fatal(err)
	}
	tree := testTrees()[1]
	expected := treelstm.Floats(model.Apply(tree).Logits.Output())
	actual := treelstm.Floats(loaded.Apply(tree).Logits.Output())
	if !vectorsClose(expected, actual, 1e-8) {
		t.Error("loaded model gives different outputs")
	}

	summary := NewSummary()
	summary.Epoch = 3
	summary.BestDev = 0.5
	summary.Epochs = []EpochRecord{{Epoch: 1, TrainLoss: 2, Dev: &Metrics{Trees: 4}}}
	if err := c.SaveSummary(summary); err != nil {
		t.Fatal(err)
	}
	newSummary, err := c.LoadSummary()
	if err != nil {
		t.Fatal(err)
	}
	if newSummary.RunID != summary.RunID || newSummary.Epoch != 3 ||
		!reflect.DeepEqual(newSummary.Epochs[0].Dev, summary.Epochs[0].Dev) {
		t.Errorf("summary mismatch: %+v", newSummary)
	}

	if err := c.SaveOptimizer([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if data, _ := c.LoadOptimizer(); !reflect.DeepEqual(data, []byte{1, 2, 3}) {
		t.Errorf("unexpected optimizer state: %v", data)
	}

	if _, err := os.Stat(c.Path(SummaryFile + ".tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

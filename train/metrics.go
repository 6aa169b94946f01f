package train

import (
	"fmt"

	"github.com/unixpickle/treelstm"
)

// Metrics summarizes a model's predictions on a set of
// trees.
//
// Binary counts exclude nodes labelled
// treelstm.NeutralLabel.
// A node is predicted positive when the probability of
// the two positive labels exceeds that of the two
// negative labels.
type Metrics struct {
	Loss  float64 `yaml:"loss"`
	Trees int     `yaml:"trees"`
	Nodes int     `yaml:"nodes"`

	AllCorrect  int `yaml:"all_correct"`
	RootCorrect int `yaml:"root_correct"`

	AllBinaryTotal    int `yaml:"all_binary_total"`
	AllBinaryCorrect  int `yaml:"all_binary_correct"`
	RootBinaryTotal   int `yaml:"root_binary_total"`
	RootBinaryCorrect int `yaml:"root_binary_correct"`
}

// Record adds the result of one tree.
// The loss is taken from the tree's cost.
func (m *Metrics) Record(res *treelstm.TreeRes) {
	m.Loss += treelstm.Floats(res.Cost().Output())[0]
	m.Trees++
	probs := res.Probabilities()
	for i, p := range probs {
		root := i == len(probs)-1
		label := res.Labels[i]
		m.Nodes++
		if argmax(p) == label {
			m.AllCorrect++
			if root {
				m.RootCorrect++
			}
		}
		if label == treelstm.NeutralLabel {
			continue
		}
		correct := binaryPositive(p) == (label > treelstm.NeutralLabel)
		m.AllBinaryTotal++
		if root {
			m.RootBinaryTotal++
		}
		if correct {
			m.AllBinaryCorrect++
			if root {
				m.RootBinaryCorrect++
			}
		}
	}
}

// Add accumulates the counts of other into m.
func (m *Metrics) Add(other *Metrics) {
	m.Loss += other.Loss
	m.Trees += other.Trees
	m.Nodes += other.Nodes
	m.AllCorrect += other.AllCorrect
	m.RootCorrect += other.RootCorrect
	m.AllBinaryTotal += other.AllBinaryTotal
	m.AllBinaryCorrect += other.AllBinaryCorrect
	m.RootBinaryTotal += other.RootBinaryTotal
	m.RootBinaryCorrect += other.RootBinaryCorrect
}

// MeanLoss returns the loss per tree.
func (m *Metrics) MeanLoss() float64 {
	return ratio(m.Loss, m.Trees)
}

// AllAccuracy is the fine-grained accuracy over every
// node.
func (m *Metrics) AllAccuracy() float64 {
	return ratio(float64(m.AllCorrect), m.Nodes)
}

// RootAccuracy is the fine-grained accuracy over roots.
func (m *Metrics) RootAccuracy() float64 {
	return ratio(float64(m.RootCorrect), m.Trees)
}

// AllBinary is the binary accuracy over non-neutral
// nodes.
func (m *Metrics) AllBinary() float64 {
	return ratio(float64(m.AllBinaryCorrect), m.AllBinaryTotal)
}

// RootBinary is the binary accuracy over non-neutral
// roots.
func (m *Metrics) RootBinary() float64 {
	return ratio(float64(m.RootBinaryCorrect), m.RootBinaryTotal)
}

// String formats the metrics on one line.
func (m *Metrics) String() string {
	return fmt.Sprintf("loss=%.4f all=%.4f root=%.4f all_binary=%.4f root_binary=%.4f",
		m.MeanLoss(), m.AllAccuracy(), m.RootAccuracy(), m.AllBinary(), m.RootBinary())
}

// Evaluate computes metrics for a model on some trees,
// using at most maxGos goroutines (0 means GOMAXPROCS).
//
// Dropout is disabled during evaluation and restored
// afterwards.
func Evaluate(model *treelstm.Model, trees []*treelstm.Node, maxGos int) *Metrics {
	training := model.InputDropout.Enabled
	model.SetTraining(false)
	defer model.SetTraining(training)

	workers := make([]Metrics, numWorkers(len(trees), maxGos))
	forEach(len(trees), len(workers), func(worker, idx int) {
		workers[worker].Record(model.Apply(trees[idx]))
	})

	res := &Metrics{}
	for i := range workers {
		res.Add(&workers[i])
	}
	return res
}

func argmax(p []float64) int {
	var best int
	for i, x := range p {
		if x > p[best] {
			best = i
		}
	}
	return best
}

func binaryPositive(p []float64) bool {
	return p[3]+p[4] > p[0]+p[1]
}

func ratio(num float64, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return num / float64(denom)
}

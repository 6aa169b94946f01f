package train

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/treelstm"
	"github.com/unixpickle/treelstm/sgd"
)

// A Trainer computes gradients of the node-level
// cross-entropy for batches of trees.
//
// It implements sgd.Gradienter.
type Trainer struct {
	Model *treelstm.Model

	// MaxGos specifies the maximum goroutines to use
	// simultaneously for evaluating trees.
	// If it is 0, GOMAXPROCS is used.
	MaxGos int

	// WeightDecay, if non-zero, adds an L2 penalty of
	// WeightDecay/2 times the squared norm of the dense
	// parameters to every batch.
	WeightDecay float64

	// Average indicates whether the cost should be divided
	// by the number of trees in the batch.
	// This affects gradients and LastCost.
	Average bool

	// After every gradient computation, LastCost is set to
	// the cost of the batch.
	LastCost float64
}

type workerGrad struct {
	grad anydiff.Grad
	rows treelstm.RowGrad
	cost float64
}

// Gradient computes the gradient for a batch.
//
// The batch must be a SampleList.
// The embedding table is included in the gradient unless
// it is frozen.
func (t *Trainer) Gradient(batch sgd.SampleList) anydiff.Grad {
	trees := batch.(SampleList)
	params := t.Model.Parameters()

	scale := 1.0
	if t.Average && len(trees) > 0 {
		scale = 1 / float64(len(trees))
	}

	workers := make([]*workerGrad, numWorkers(len(trees), t.MaxGos))
	for i := range workers {
		workers[i] = &workerGrad{
			grad: anydiff.NewGrad(params...),
			rows: treelstm.RowGrad{},
		}
	}
	forEach(len(trees), len(workers), func(worker, idx int) {
		w := workers[worker]
		w.cost += t.treeGrad(trees[idx], scale, w.grad, w.rows)
	})

	res := workers[0].grad
	rows := workers[0].rows
	cost := workers[0].cost
	for _, w := range workers[1:] {
		for v, vec := range w.grad {
			res[v].Add(vec)
		}
		rows.Merge(w.rows)
		cost += w.cost
	}

	if penalty := treelstm.L2Penalty(params, t.WeightDecay); penalty != nil {
		c := penalty.Output().Creator()
		penalty.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{1})), res)
		cost += treelstm.Floats(penalty.Output())[0]
	}

	if !t.Model.Embedding.Frozen {
		res[t.Model.Embedding.Table] = t.Model.Embedding.DenseGrad(rows)
	}

	t.LastCost = cost
	return res
}

// treeGrad back-propagates the scaled cost of one tree
// into grad and rows, returning the scaled cost.
func (t *Trainer) treeGrad(tree *treelstm.Node, scale float64, grad anydiff.Grad,
	rows treelstm.RowGrad) float64 {
	res := t.Model.Apply(tree)
	for _, row := range res.Rows {
		grad[row.Var] = row.Var.Vector.Creator().MakeVector(row.Var.Vector.Len())
	}

	cost := res.Cost()
	c := cost.Output().Creator()
	cost.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{scale})), grad)

	for _, row := range res.Rows {
		rows.Add(row.Index, grad[row.Var])
		delete(grad, row.Var)
	}
	return scale * treelstm.Floats(cost.Output())[0]
}

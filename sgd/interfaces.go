package sgd

import "github.com/unixpickle/anydiff"

// A Transformer rewrites gradients before each step, for
// example to precondition them.
//
// Every gradient passed to a Transformer must contain the
// same variables as the first one.
// The input may be modified and returned, but it must not
// be retained; state that outlives the call belongs in
// separately allocated vectors.
type Transformer interface {
	Transform(g anydiff.Grad) anydiff.Grad
}

// A StateMarshaler is a Transformer whose state can be
// saved in a checkpoint and restored later.
//
// The vars fix the order of the per-variable state, so
// marshalling and unmarshalling must use the same list.
type StateMarshaler interface {
	Transformer
	MarshalState(vars []*anydiff.Var) ([]byte, error)
	UnmarshalState(vars []*anydiff.Var, data []byte) error
}

// A Gradienter computes the gradient of a mini-batch.
// It may reuse the returned gradient between calls.
type Gradienter interface {
	Gradient(batch SampleList) anydiff.Grad
}

// A Rater picks the learning rate for a (possibly
// fractional) epoch.
type Rater interface {
	Rate(epoch float64) float64
}

// A SampleList is a mutable list of training samples.
type SampleList interface {
	Len() int
	Swap(i, j int)

	// Slice returns a shallow copy of the range [i, j).
	Slice(i, j int) SampleList
}

// A PostShuffler is a SampleList that wants to know when
// Shuffle has reordered it.
type PostShuffler interface {
	PostShuffle()
}

// A Stopper is polled between mini-batches to decide
// whether training should stop.
type Stopper interface {
	Done() bool
}

// Package sgd provides tools for stochastic gradient
// descent over anydiff variables.
package sgd

import "github.com/unixpickle/anydiff"

// SGD performs stochastic gradient descent.
type SGD struct {
	// Gradienter is used to compute initial, untransformed
	// gradients for each mini-batch.
	Gradienter Gradienter

	// Transformer, if non-nil, is used to transform each
	// gradient before the step.
	Transformer Transformer

	// Samples is the list of training samples to use for
	// training.
	// It is re-shuffled at the start of every epoch.
	//
	// The list may not be empty.
	Samples SampleList

	// Rater determines the learning rate for each step.
	Rater Rater

	// StatusFunc, if non-nil, is called after every
	// iteration with the mini-batch that was just used.
	StatusFunc func(batch SampleList)

	// BatchSize is the mini-batch size.
	// If it is 0, then the entire sample list is used at
	// every iteration.
	BatchSize int

	// NumProcessed keeps track of the number of samples that
	// have been passed to Gradienter so far.
	// It is used to compute the epoch for Rater.
	// It should be restored when resuming from a checkpoint.
	NumProcessed int
}

// Epoch performs one pass over a freshly shuffled sample
// list.
//
// The stopper is checked before every mini-batch.
// The result is false if the pass was cut short.
func (s *SGD) Epoch(stopper Stopper) bool {
	if s.Samples.Len() == 0 {
		panic("cannot run SGD with empty sample list")
	}
	Shuffle(s.Samples)
	for idx := 0; idx < s.Samples.Len(); {
		if stopper.Done() {
			return false
		}
		batchSize := s.batchSize(s.Samples.Len() - idx)
		batch := s.Samples.Slice(idx, idx+batchSize)
		idx += batchSize
		s.Step(batch)
		if s.StatusFunc != nil {
			s.StatusFunc(batch)
		}
	}
	return true
}

// Run runs epochs until stopper indicates to stop.
func (s *SGD) Run(stopper Stopper) {
	for s.Epoch(stopper) {
	}
}

// Step performs a single update using the mini-batch.
func (s *SGD) Step(batch SampleList) {
	grad := s.Gradienter.Gradient(batch)
	if s.Transformer != nil {
		grad = s.Transformer.Transform(grad)
	}

	epoch := float64(s.NumProcessed) / float64(s.Samples.Len())
	scaleGradient(grad, -s.Rater.Rate(epoch))
	grad.AddToVars()

	s.NumProcessed += batch.Len()
}

func (s *SGD) batchSize(remaining int) int {
	if s.BatchSize == 0 || s.BatchSize > remaining {
		return remaining
	}
	return s.BatchSize
}

func scaleGradient(g anydiff.Grad, s float64) {
	for _, v := range g {
		g.Scale(v.Creator().MakeNumeric(s))
		return
	}
}

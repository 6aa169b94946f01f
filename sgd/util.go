package sgd

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
)

// Shuffle shuffles a list of samples.
// If the list implements PostShuffler, then PostShuffle
// is called after the shuffle completes.
func Shuffle(s SampleList) {
	for i := 0; i < s.Len(); i++ {
		j := i + rand.Intn(s.Len()-i)
		s.Swap(i, j)
	}
	if p, ok := s.(PostShuffler); ok {
		p.PostShuffle()
	}
}

// A ConstRater is a Rater which always returns the same
// constant learning rate.
type ConstRater float64

// Rate returns float64(c).
func (c ConstRater) Rate(epoch float64) float64 {
	return float64(c)
}

// StopChan is a Stopper which is done once the channel
// is closed or receives a value.
type StopChan <-chan struct{}

// Done checks the channel without blocking.
func (s StopChan) Done() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}

// A StopFunc is a Stopper backed by a function.
type StopFunc func() bool

// Done calls the function.
func (s StopFunc) Done() bool {
	return s()
}

func copyGrad(g anydiff.Grad) anydiff.Grad {
	res := anydiff.Grad{}
	for v, x := range g {
		res[v] = x.Copy()
	}
	return res
}

func scaleGrad(g anydiff.Grad, s float64) {
	for _, x := range g {
		x.Scale(x.Creator().MakeNumeric(s))
	}
}

func valueOrDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}

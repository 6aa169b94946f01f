package sgd

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

const (
	adamDefaultDecayRate1 = 0.9
	adamDefaultDecayRate2 = 0.999
	adamDefaultDamping    = 1e-8
)

// Adam implements the adaptive moments SGD technique
// described in https://arxiv.org/pdf/1412.6980.pdf.
type Adam struct {
	// These are decay rates for the first and second
	// moments of the gradient.
	// If these are 0, defaults as suggested in the
	// original Adam paper are used.
	DecayRate1, DecayRate2 float64

	// Damping is used to prevent divisions by zero.
	// This should be very small.
	// If it is 0, a default is used.
	Damping float64

	firstMoment  anydiff.Grad
	secondMoment anydiff.Grad
	iteration    float64
}

// Transform transforms the gradient using Adam.
//
// This is not thread-safe.
func (a *Adam) Transform(realGrad anydiff.Grad) anydiff.Grad {
	a.updateMoments(realGrad)

	a.iteration++
	scalingFactor := math.Sqrt(1-math.Pow(a.decayRate(2), a.iteration)) /
		(1 - math.Pow(a.decayRate(1), a.iteration))
	damping := valueOrDefault(a.Damping, adamDefaultDamping)
	for variable, vec := range realGrad {
		firstVec := a.firstMoment[variable]
		secondVec := a.secondMoment[variable]

		vec.Set(firstVec)
		vec.Scale(vec.Creator().MakeNumeric(scalingFactor))

		divisor := secondVec.Copy()
		anyvec.Pow(divisor, divisor.Creator().MakeNumeric(0.5))
		divisor.AddScalar(divisor.Creator().MakeNumeric(damping))
		vec.Div(divisor)
	}

	return realGrad
}

// MarshalState encodes the moments and iteration count.
func (a *Adam) MarshalState(vars []*anydiff.Var) ([]byte, error) {
	if a.firstMoment == nil {
		return []byte{}, nil
	}
	first, err := gradObjects(vars, a.firstMoment)
	if err != nil {
		return nil, essentials.AddCtx("marshal Adam", err)
	}
	second, err := gradObjects(vars, a.secondMoment)
	if err != nil {
		return nil, essentials.AddCtx("marshal Adam", err)
	}
	objs := append(append(first, second...), serializer.Float64(a.iteration))
	return serializer.SerializeAny(objs...)
}

// UnmarshalState restores the state saved by
// MarshalState.
func (a *Adam) UnmarshalState(vars []*anydiff.Var, data []byte) error {
	if len(data) == 0 {
		a.firstMoment, a.secondMoment, a.iteration = nil, nil, 0
		return nil
	}
	first := gradDests(vars)
	second := gradDests(vars)
	var iteration serializer.Float64
	dests := append(append(first, second...), &iteration)
	if err := serializer.DeserializeAny(data, dests...); err != nil {
		return essentials.AddCtx("unmarshal Adam", err)
	}
	firstMoment, err := destsGrad(vars, first)
	if err != nil {
		return essentials.AddCtx("unmarshal Adam", err)
	}
	secondMoment, err := destsGrad(vars, second)
	if err != nil {
		return essentials.AddCtx("unmarshal Adam", err)
	}
	a.firstMoment = firstMoment
	a.secondMoment = secondMoment
	a.iteration = float64(iteration)
	return nil
}

func (a *Adam) updateMoments(grad anydiff.Grad) {
	if a.firstMoment == nil {
		a.firstMoment = copyGrad(grad)
		scaleGrad(a.firstMoment, 1-a.decayRate(1))
	} else {
		decayRate := a.decayRate(1)
		scaleGrad(a.firstMoment, decayRate)

		keepRate := 1 - decayRate
		for variable, vec := range grad {
			momentVec := a.firstMoment[variable]
			v := vec.Copy()
			v.Scale(vec.Creator().MakeNumeric(keepRate))
			momentVec.Add(v)
		}
	}

	if a.secondMoment == nil {
		a.secondMoment = copyGrad(grad)
		for _, v := range a.secondMoment {
			anyvec.Pow(v, v.Creator().MakeNumeric(2))
		}
		scaleGrad(a.secondMoment, 1-a.decayRate(2))
	} else {
		decayRate := a.decayRate(2)
		scaleGrad(a.secondMoment, decayRate)
		keepRate := 1 - decayRate
		for variable, vec := range grad {
			momentVec := a.secondMoment[variable]
			v := vec.Copy()
			anyvec.Pow(v, v.Creator().MakeNumeric(2))
			v.Scale(v.Creator().MakeNumeric(keepRate))
			momentVec.Add(v)
		}
	}
}

func (a *Adam) decayRate(moment int) float64 {
	switch moment {
	case 1:
		return valueOrDefault(a.DecayRate1, adamDefaultDecayRate1)
	case 2:
		return valueOrDefault(a.DecayRate2, adamDefaultDecayRate2)
	default:
		panic("invalid moment")
	}
}

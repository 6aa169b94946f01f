package sgd

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestGradientMarshal(t *testing.T) {
	vars := testVars()
	grad := randomGrad(vars)

	data, err := marshalGradient(vars, grad)
	if err != nil {
		t.Fatal(err)
	}
	newGrad, err := unmarshalGradient(vars, data)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vars {
		if !vectorsClose(grad[v].Data().([]float64), newGrad[v].Data().([]float64)) {
			t.Error("gradient mismatch")
		}
	}

	if _, err := marshalGradient(vars[:1], grad); err == nil {
		t.Error("expected error for mismatched variables")
	}
	if _, err := unmarshalGradient(vars[1:], data); err == nil {
		t.Error("expected error for mismatched variables")
	}

	c32 := anyvec32.DefaultCreator{}
	vars32 := []*anydiff.Var{
		anydiff.NewVar(c32.MakeVector(3)),
		anydiff.NewVar(c32.MakeVector(5)),
	}
	if _, err := unmarshalGradient(vars32, data); err == nil {
		t.Error("expected error for mismatched creator")
	}
}

func TestStateMarshal(t *testing.T) {
	makers := map[string]func() StateMarshaler{
		"Adam":     func() StateMarshaler { return &Adam{} },
		"Adagrad":  func() StateMarshaler { return &Adagrad{} },
		"RMSProp":  func() StateMarshaler { return &RMSProp{} },
		"Momentum": func() StateMarshaler { return &Momentum{Momentum: 0.9} },
	}
	for name, maker := range makers {
		t.Run(name, func(t *testing.T) {
			testStateMarshal(t, maker)
		})
	}
}

func testStateMarshal(t *testing.T, maker func() StateMarshaler) {
	vars := testVars()
	inst := maker()

	// Marshalling before the first step must work too.
	data, err := inst.MarshalState(vars)
	if err != nil {
		t.Fatal(err)
	}
	fresh := maker()
	if err := fresh.UnmarshalState(vars, data); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		inst.Transform(randomGrad(vars))
	}
	data, err = inst.MarshalState(vars)
	if err != nil {
		t.Fatal(err)
	}
	restored := maker()
	if err := restored.UnmarshalState(vars, data); err != nil {
		t.Fatal(err)
	}

	in := randomGrad(vars)
	expected := inst.Transform(copyGrad(in))
	actual := restored.Transform(copyGrad(in))
	for _, v := range vars {
		if !vectorsClose(expected[v].Data().([]float64), actual[v].Data().([]float64)) {
			t.Errorf("transformed gradient mismatch for variable of size %d",
				v.Vector.Len())
		}
	}
}

func testVars() []*anydiff.Var {
	c := anyvec64.DefaultCreator{}
	return []*anydiff.Var{
		anydiff.NewVar(c.MakeVector(3)),
		anydiff.NewVar(c.MakeVector(5)),
	}
}

func vectorsClose(v1, v2 []float64) bool {
	if len(v1) != len(v2) {
		return false
	}
	for i, x := range v1 {
		if math.Abs(x-v2[i]) > 1e-8 {
			return false
		}
	}
	return true
}

package sgd

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

type testSample struct {
	X2 float64
	Y2 float64
	XY float64
	X  float64
	Y  float64
}

func (t *testSample) Apply(x, y anydiff.Res) anydiff.Res {
	mk := x.Output().Creator().MakeNumeric
	a := anydiff.Scale(anydiff.Mul(x, x), mk(t.X2))
	b := anydiff.Scale(anydiff.Mul(y, y), mk(t.Y2))
	c := anydiff.Scale(anydiff.Mul(x, y), mk(t.XY))
	d := anydiff.Scale(x, mk(t.X))
	e := anydiff.Scale(y, mk(t.Y))
	return anydiff.Add(
		anydiff.Add(a, b),
		anydiff.Add(anydiff.Add(c, d), e),
	)
}

type testSampleList []*testSample

func newTestSampleList() testSampleList {
	// Together, these polynomials add up to 3x^2+3xy-2x+y^2.
	// The global minimum is (x = 4/3, y = -2).
	return testSampleList{
		{X2: 2, X: -1, XY: 0, Y2: 0.5},
		{X2: -1, X: 0, XY: 2, Y2: 0.5},
		{X2: 2, X: -1, XY: 1, Y2: 0},
	}
}

func (t testSampleList) Len() int {
	return len(t)
}

func (t testSampleList) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
}

func (t testSampleList) Slice(i, j int) SampleList {
	return append(testSampleList{}, t[i:j]...)
}

type testStopper struct {
	callsRemaining int
}

func (t *testStopper) Done() bool {
	t.callsRemaining--
	return t.callsRemaining < 0
}

type testGradienter struct {
	X *anydiff.Var
	Y *anydiff.Var
}

func newTestGradienter() *testGradienter {
	c := anyvec32.DefaultCreator{}
	return &testGradienter{
		X: anydiff.NewVar(c.MakeVector(1)),
		Y: anydiff.NewVar(c.MakeVector(1)),
	}
}

func (t *testGradienter) Gradient(s SampleList) anydiff.Grad {
	var cost anydiff.Res
	for _, x := range s.(testSampleList) {
		res := x.Apply(t.X, t.Y)
		if cost == nil {
			cost = res
		} else {
			cost = anydiff.Add(cost, res)
		}
	}
	grad := anydiff.NewGrad(t.X, t.Y)
	c := t.X.Vector.Creator()
	cost.Propagate(c.MakeVectorData(c.MakeNumericList([]float64{1})), grad)
	return grad
}

func (t *testGradienter) current() (x, y float64) {
	return float64(t.X.Vector.Data().([]float32)[0]),
		float64(t.Y.Vector.Data().([]float32)[0])
}

func (t *testGradienter) errorMargin() float64 {
	x, y := t.current()
	return math.Max(math.Abs(x-4.0/3), math.Abs(y+2))
}

func TestSGD(t *testing.T) {
	g := newTestGradienter()
	s := &SGD{
		Gradienter: g,
		Samples:    newTestSampleList(),
		Rater:      ConstRater(0.0002),
		BatchSize:  1,
	}

	s.Run(&testStopper{callsRemaining: 400000})

	if g.errorMargin() > 1e-2 {
		x, y := g.current()
		t.Errorf("bad solution: %f, %f", x, y)
	}
}

func TestSGDEpoch(t *testing.T) {
	g := newTestGradienter()
	var batches []int
	s := &SGD{
		Gradienter: g,
		Samples:    newTestSampleList(),
		Rater:      ConstRater(0.01),
		BatchSize:  2,
		StatusFunc: func(b SampleList) {
			batches = append(batches, b.Len())
		},
	}
	if !s.Epoch(&testStopper{callsRemaining: 10}) {
		t.Fatal("epoch should complete")
	}
	if len(batches) != 2 || batches[0] != 2 || batches[1] != 1 {
		t.Errorf("unexpected batch sizes: %v", batches)
	}
	if s.NumProcessed != 3 {
		t.Errorf("expected 3 processed samples but got %d", s.NumProcessed)
	}
	if s.Epoch(&testStopper{callsRemaining: 1}) {
		t.Error("epoch should be interrupted")
	}
	if s.NumProcessed != 5 {
		t.Errorf("expected 5 processed samples but got %d", s.NumProcessed)
	}
}

func TestAdam(t *testing.T) {
	g := newTestGradienter()
	s := &SGD{
		Gradienter:  g,
		Transformer: &Adam{},
		Samples:     newTestSampleList(),
		Rater:       ConstRater(0.001),
		BatchSize:   1,
	}

	s.Run(&testStopper{callsRemaining: 100000})

	if g.errorMargin() > 1e-2 {
		x, y := g.current()
		t.Errorf("bad solution: %f, %f", x, y)
	}
}

func TestAdagrad(t *testing.T) {
	g := newTestGradienter()
	s := &SGD{
		Gradienter:  g,
		Transformer: &Adagrad{},
		Samples:     newTestSampleList(),
		Rater:       ConstRater(0.1),
	}

	s.Run(&testStopper{callsRemaining: 20000})

	if g.errorMargin() > 1e-2 {
		x, y := g.current()
		t.Errorf("bad solution: %f, %f", x, y)
	}
}

func TestAdagradStep(t *testing.T) {
	c := anyvec32.DefaultCreator{}
	v := anydiff.NewVar(c.MakeVector(2))
	a := &Adagrad{InitialAccumulator: 1}
	grad := anydiff.Grad{v: c.MakeVectorData(c.MakeNumericList([]float64{3, -1}))}
	out := a.Transform(grad)[v].Data().([]float32)
	expected := []float64{3 / math.Sqrt(10), -1 / math.Sqrt(2)}
	for i, x := range expected {
		if math.Abs(float64(out[i])-x) > 1e-4 {
			t.Errorf("component %d: expected %f but got %f", i, x, out[i])
		}
	}
}

func TestVarScalerChain(t *testing.T) {
	c := anyvec32.DefaultCreator{}
	v1 := anydiff.NewVar(c.MakeVector(1))
	v2 := anydiff.NewVar(c.MakeVector(1))
	grad := anydiff.Grad{
		v1: c.MakeVectorData(c.MakeNumericList([]float64{2})),
		v2: c.MakeVectorData(c.MakeNumericList([]float64{2})),
	}
	tr := Chain{VarScaler{v1: 0.5}, VarScaler{v1: 3, v2: -1}}
	out := tr.Transform(grad)
	if x := out[v1].Data().([]float32)[0]; x != 3 {
		t.Errorf("v1: expected 3 but got %f", x)
	}
	if x := out[v2].Data().([]float32)[0]; x != -2 {
		t.Errorf("v2: expected -2 but got %f", x)
	}
}

func TestStopChan(t *testing.T) {
	ch := make(chan struct{})
	s := StopChan(ch)
	if s.Done() {
		t.Error("should not be done")
	}
	close(ch)
	if !s.Done() {
		t.Error("should be done")
	}
}

func randomGrad(vars []*anydiff.Var) anydiff.Grad {
	res := anydiff.Grad{}
	for _, v := range vars {
		vec := v.Vector.Creator().MakeVector(v.Vector.Len())
		anyvec.Rand(vec, anyvec.Normal, nil)
		res[v] = vec
	}
	return res
}

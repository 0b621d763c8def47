// Package nn provides a single-hidden-layer regressor trained online by
// stochastic gradient descent on squared error.
package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// ActivationReLU is the only hidden activation currently supported.
const ActivationReLU = "relu"

// Architecture describes the shape and training rate of an MLP.
// Together with Weights it fully reconstructs a trained model.
type Architecture struct {
	Inputs       int     `json:"inputs"`
	Hidden       int     `json:"hidden"`
	Activation   string  `json:"activation"`
	LearningRate float64 `json:"learningRate"`
}

// Validate checks the architecture is usable.
func (a Architecture) Validate() error {
	switch {
	case a.Inputs <= 0:
		return &ArchitectureError{Field: "inputs", Reason: "must be positive"}
	case a.Hidden <= 0:
		return &ArchitectureError{Field: "hidden", Reason: "must be positive"}
	case a.Activation != ActivationReLU:
		return &ArchitectureError{Field: "activation", Reason: fmt.Sprintf("%q is not supported", a.Activation)}
	case !(a.LearningRate > 0) || math.IsInf(a.LearningRate, 0):
		return &ArchitectureError{Field: "learningRate", Reason: "must be positive and finite"}
	}
	return nil
}

// MLP is inputs -> hidden (ReLU) -> 1 linear output.
type MLP struct {
	arch Architecture
	w1   *mat.Dense    // hidden x inputs
	b1   *mat.VecDense // hidden
	w2   *mat.Dense    // 1 x hidden
	b2   *mat.VecDense // 1
}

// New creates an MLP with He-uniform hidden weights drawn from rng, a zero
// output layer and the output bias set to outputBias, so an untrained
// network predicts exactly outputBias for every input.
func New(arch Architecture, rng *rand.Rand, outputBias float64) (*MLP, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	limit := math.Sqrt(6 / float64(arch.Inputs))
	w1 := make([]float64, arch.Hidden*arch.Inputs)
	for i := range w1 {
		w1[i] = (2*rng.Float64() - 1) * limit
	}
	return &MLP{
		arch: arch,
		w1:   mat.NewDense(arch.Hidden, arch.Inputs, w1),
		b1:   mat.NewVecDense(arch.Hidden, nil),
		w2:   mat.NewDense(1, arch.Hidden, nil),
		b2:   mat.NewVecDense(1, []float64{outputBias}),
	}, nil
}

// FromWeights rebuilds an MLP from its architecture and the flattened
// arrays produced by Weights.
func FromWeights(arch Architecture, weights [][]float64) (*MLP, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	want := []int{arch.Hidden * arch.Inputs, arch.Hidden, arch.Hidden, 1}
	if len(weights) != len(want) {
		return nil, fmt.Errorf("%w: got %d weight arrays, want %d", ErrShape, len(weights), len(want))
	}
	for i, n := range want {
		if len(weights[i]) != n {
			return nil, fmt.Errorf("%w: weight array %d has %d values, want %d", ErrShape, i, len(weights[i]), n)
		}
		for _, v := range weights[i] {
			if !finite(v) {
				return nil, fmt.Errorf("weight array %d: %w", i, ErrNonFinite)
			}
		}
	}
	return &MLP{
		arch: arch,
		w1:   mat.NewDense(arch.Hidden, arch.Inputs, clone(weights[0])),
		b1:   mat.NewVecDense(arch.Hidden, clone(weights[1])),
		w2:   mat.NewDense(1, arch.Hidden, clone(weights[2])),
		b2:   mat.NewVecDense(1, clone(weights[3])),
	}, nil
}

// Architecture returns the model's architecture description.
func (m *MLP) Architecture() Architecture {
	return m.arch
}

// Weights returns copies of the trainable parameters in the order
// hidden kernel (row-major), hidden bias, output kernel, output bias.
func (m *MLP) Weights() [][]float64 {
	return [][]float64{
		denseData(m.w1),
		clone(m.b1.RawVector().Data),
		denseData(m.w2),
		clone(m.b2.RawVector().Data),
	}
}

// Predict runs one forward pass.
func (m *MLP) Predict(x []float64) (float64, error) {
	in, err := m.input(x)
	if err != nil {
		return 0, err
	}
	_, _, y := m.forward(in)
	if !finite(y) {
		return 0, ErrNonFinite
	}
	return y, nil
}

// Fit performs epochs SGD steps on the single example (x, target) and
// returns the squared error before the last step. If any value becomes
// non-finite the pre-fit weights are restored and ErrNonFinite returned.
func (m *MLP) Fit(x []float64, target float64, epochs int) (float64, error) {
	in, err := m.input(x)
	if err != nil {
		return 0, err
	}
	if !finite(target) {
		return 0, fmt.Errorf("target: %w", ErrNonFinite)
	}

	saved := m.Weights()
	var loss float64
	for range epochs {
		loss = m.step(in, target)
		if !finite(loss) || !m.finiteWeights() {
			m.restore(saved)
			return 0, ErrNonFinite
		}
	}
	return loss, nil
}

func (m *MLP) input(x []float64) (*mat.VecDense, error) {
	if len(x) != m.arch.Inputs {
		return nil, fmt.Errorf("%w: got %d inputs, want %d", ErrShape, len(x), m.arch.Inputs)
	}
	for _, v := range x {
		if !finite(v) {
			return nil, fmt.Errorf("input: %w", ErrNonFinite)
		}
	}
	return mat.NewVecDense(len(x), clone(x)), nil
}

func (m *MLP) forward(x *mat.VecDense) (z1, h *mat.VecDense, y float64) {
	z1 = mat.NewVecDense(m.arch.Hidden, nil)
	z1.MulVec(m.w1, x)
	z1.AddVec(z1, m.b1)

	h = mat.NewVecDense(m.arch.Hidden, nil)
	for i := range m.arch.Hidden {
		h.SetVec(i, math.Max(0, z1.AtVec(i)))
	}

	out := mat.NewVecDense(1, nil)
	out.MulVec(m.w2, h)
	out.AddVec(out, m.b2)
	return z1, h, out.AtVec(0)
}

func (m *MLP) step(x *mat.VecDense, target float64) float64 {
	lr := m.arch.LearningRate
	z1, h, y := m.forward(x)
	diff := y - target
	dy := mat.NewVecDense(1, []float64{diff})

	// Hidden gradient uses the output kernel before it is updated.
	dz := mat.NewVecDense(m.arch.Hidden, nil)
	dz.MulVec(m.w2.T(), dy)
	for i := range m.arch.Hidden {
		if z1.AtVec(i) <= 0 {
			dz.SetVec(i, 0)
		}
	}

	var g2 mat.Dense
	g2.Outer(-lr, dy, h)
	m.w2.Add(m.w2, &g2)
	m.b2.AddScaledVec(m.b2, -lr, dy)

	var g1 mat.Dense
	g1.Outer(-lr, dz, x)
	m.w1.Add(m.w1, &g1)
	m.b1.AddScaledVec(m.b1, -lr, dz)

	return diff * diff
}

func (m *MLP) finiteWeights() bool {
	for _, arr := range m.Weights() {
		for _, v := range arr {
			if !finite(v) {
				return false
			}
		}
	}
	return true
}

func (m *MLP) restore(w [][]float64) {
	m.w1 = mat.NewDense(m.arch.Hidden, m.arch.Inputs, w[0])
	m.b1 = mat.NewVecDense(m.arch.Hidden, w[1])
	m.w2 = mat.NewDense(1, m.arch.Hidden, w[2])
	m.b2 = mat.NewVecDense(1, w[3])
}

func denseData(d *mat.Dense) []float64 {
	r, c := d.Dims()
	out := make([]float64, 0, r*c)
	for i := range r {
		for j := range c {
			out = append(out, d.At(i, j))
		}
	}
	return out
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

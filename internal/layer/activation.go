package layer

import (
	"github.com/FlavioCFOliveira/imgae/internal/activations"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
)

// ReLU applies max(0, x) elementwise. It caches its input.
type ReLU struct {
	act   activations.ReLU
	input cache
}

// NewReLU creates a ReLU layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward computes max(0, x).
func (r *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if err := r.input.begin(r.Name()); err != nil {
		return nil, err
	}
	y := tensor.Apply(x, r.act.Activate)
	r.input.store(x.Clone(), y)
	return y, nil
}

// Backward passes grad through where the cached input was positive.
func (r *ReLU) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	x, err := r.input.take(r.Name(), grad)
	if err != nil {
		return nil, err
	}
	dx := tensor.New(grad.Rows, grad.Cols)
	for i, g := range grad.Data {
		dx.Data[i] = g * r.act.Derivative(x.Data[i])
	}
	return dx, nil
}

// Parameters returns nil; ReLU has nothing to learn.
func (r *ReLU) Parameters() []Parameter { return nil }

// Name returns "relu".
func (r *ReLU) Name() string { return "relu" }

// Reset drops the cached input.
func (r *ReLU) Reset() { r.input.reset() }

// Sigmoid applies 1/(1+exp(-x)) elementwise with inputs clamped to
// [-88, 88]. It caches its output rather than its input.
type Sigmoid struct {
	act    activations.Sigmoid
	output cache
}

// NewSigmoid creates a Sigmoid layer.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward computes the clamped logistic function.
func (s *Sigmoid) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.output.begin(s.Name()); err != nil {
		return nil, err
	}
	y := tensor.Apply(x, s.act.Activate)
	s.output.store(y.Clone(), y)
	return y, nil
}

// Backward computes grad * y * (1 - y) from the cached output y.
func (s *Sigmoid) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	y, err := s.output.take(s.Name(), grad)
	if err != nil {
		return nil, err
	}
	dx := tensor.New(grad.Rows, grad.Cols)
	for i, g := range grad.Data {
		dx.Data[i] = g * s.act.DerivativeFromOutput(y.Data[i])
	}
	return dx, nil
}

// Parameters returns nil; Sigmoid has nothing to learn.
func (s *Sigmoid) Parameters() []Parameter { return nil }

// Name returns "sigmoid".
func (s *Sigmoid) Name() string { return "sigmoid" }

// Reset drops the cached output.
func (s *Sigmoid) Reset() { s.output.reset() }

// Package activations provides the scalar activation kernels used by the
// activation layers.
package activations

import "github.com/chewxy/math32"

// SigmoidClamp bounds sigmoid inputs so exp never overflows float32.
const SigmoidClamp float32 = 88

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float32) float32

	// Derivative computes f'(x)
	Derivative(x float32) float32
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0.
// The kink at exactly 0 is treated as having zero slope.
func (r ReLU) Derivative(x float32) float32 {
	if x > 0 {
		return 1
	}
	return 0
}

// Sigmoid activation function with input clamping.
type Sigmoid struct{}

// Activate computes 1 / (1 + exp(-x)) with x clamped to [-88, 88].
func (s Sigmoid) Activate(x float32) float32 {
	if x > SigmoidClamp {
		x = SigmoidClamp
	} else if x < -SigmoidClamp {
		x = -SigmoidClamp
	}
	return 1 / (1 + math32.Exp(-x))
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float32) float32 {
	return s.DerivativeFromOutput(s.Activate(x))
}

// DerivativeFromOutput computes the derivative given y = sigmoid(x).
func (s Sigmoid) DerivativeFromOutput(y float32) float32 {
	return y * (1 - y)
}

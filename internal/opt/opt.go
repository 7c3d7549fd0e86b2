// Package opt provides optimization algorithms.
package opt

import (
	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/chewxy/math32"
)

// Optimizer updates the parameters it was bound to from their gradients.
type Optimizer interface {
	// Step applies one update. It must be called exactly once per
	// optimization step, after a backward pass filled every gradient.
	Step()

	// LearningRate returns the current step size.
	LearningRate() float32

	// SetLearningRate changes the step size for subsequent steps.
	SetLearningRate(lr float32)
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR      float32 // Learning rate (default: 0.001)
	Beta1   float32 // Exponential decay rate for the first moment (default: 0.9)
	Beta2   float32 // Exponential decay rate for the second moment (default: 0.999)
	Epsilon float32 // Small constant for numerical stability (default: 1e-8)
}

// DefaultAdamConfig returns the conventional Adam hyperparameters.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LR:      0.001,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
	}
}

// Adam implements the Adam (Adaptive Moment Estimation) optimizer:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g²
//	p -= lr * (m/(1-beta1^t)) / (sqrt(v/(1-beta2^t)) + eps)
//
// The parameter list is a snapshot taken at construction; parameters
// added to the model afterwards are not tracked.
type Adam struct {
	params []layer.Parameter
	m      []*tensor.Tensor
	v      []*tensor.Tensor
	cfg    AdamConfig
	t      int
}

// NewAdam binds an Adam optimizer to params with zero-filled moments.
func NewAdam(params []layer.Parameter, cfg AdamConfig) *Adam {
	bound := make([]layer.Parameter, len(params))
	copy(bound, params)

	a := &Adam{
		params: bound,
		m:      make([]*tensor.Tensor, len(bound)),
		v:      make([]*tensor.Tensor, len(bound)),
		cfg:    cfg,
	}
	for i, p := range bound {
		a.m[i] = tensor.Zeros(p.Value.Rows, p.Value.Cols)
		a.v[i] = tensor.Zeros(p.Value.Rows, p.Value.Cols)
	}
	return a
}

// Step increments the timestep and updates every bound parameter in place.
func (a *Adam) Step() {
	a.t++
	beta1, beta2 := a.cfg.Beta1, a.cfg.Beta2
	bc1 := 1 - math32.Pow(beta1, float32(a.t))
	bc2 := 1 - math32.Pow(beta2, float32(a.t))

	for i, p := range a.params {
		value, grad := p.Value.Data, p.Grad.Data
		m, v := a.m[i].Data, a.v[i].Data
		for j, g := range grad {
			m[j] = beta1*m[j] + (1-beta1)*g
			v[j] = beta2*v[j] + (1-beta2)*g*g
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			value[j] -= a.cfg.LR * mHat / (math32.Sqrt(vHat) + a.cfg.Epsilon)
		}
	}
}

// Timestep returns the number of steps taken so far.
func (a *Adam) Timestep() int {
	return a.t
}

// Moments returns the first and second moment tensors of parameter i.
func (a *Adam) Moments(i int) (m, v *tensor.Tensor) {
	return a.m[i], a.v[i]
}

// Config returns the current hyperparameters.
func (a *Adam) Config() AdamConfig {
	return a.cfg
}

// LearningRate returns the current learning rate.
func (a *Adam) LearningRate() float32 {
	return a.cfg.LR
}

// SetLearningRate changes the learning rate for subsequent steps.
func (a *Adam) SetLearningRate(lr float32) {
	a.cfg.LR = lr
}

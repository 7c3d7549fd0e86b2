// Package loss provides the mean squared error objective.
package loss

import (
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

// ErrNoForward is returned by Backward before any Forward.
var ErrNoForward = errors.New("loss backward without forward")

// Loss is a scalar objective with a cached derivative.
type Loss interface {
	// Forward computes the loss between prediction and target and caches
	// both for Backward.
	Forward(pred, target *tensor.Tensor) (float32, error)

	// Backward returns the gradient of the last Forward w.r.t. pred.
	Backward() (*tensor.Tensor, error)
}

// MSE (Mean Squared Error) loss over all elements, batch and feature
// dimensions flattened together.
type MSE struct {
	pred   *tensor.Tensor
	target *tensor.Tensor
	n      int
}

// NewMSE creates an MSE loss.
func NewMSE() *MSE {
	return &MSE{}
}

// Forward computes mean squared error: (1/n) * sum((pred - target)^2)
func (m *MSE) Forward(pred, target *tensor.Tensor) (float32, error) {
	n := pred.Size()
	if n != target.Size() {
		return 0, errors.Wrapf(tensor.ErrShape, "mse: prediction has %d elements, target %d", n, target.Size())
	}
	if n == 0 {
		return 0, errors.Wrap(tensor.ErrShape, "mse: empty prediction")
	}

	var sum float32
	for i, p := range pred.Data {
		diff := p - target.Data[i]
		sum += diff * diff
	}

	m.pred = pred.Clone()
	m.target = target.Clone()
	m.n = n
	return sum / float32(n), nil
}

// Backward computes gradient: dL/dpred = (2/n) * (pred - target),
// shaped like the cached prediction.
func (m *MSE) Backward() (*tensor.Tensor, error) {
	if m.pred == nil {
		return nil, ErrNoForward
	}

	grad := tensor.New(m.pred.Rows, m.pred.Cols)
	factor := 2 / float32(m.n)
	for i, p := range m.pred.Data {
		grad.Data[i] = factor * (p - m.target.Data[i])
	}
	return grad, nil
}

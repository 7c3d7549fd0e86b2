package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

// Dense is a fully connected layer computing y = x·W + b.
// W has shape (in, out) and b has shape (1, out); b is broadcast across the
// rows of a multi-row input.
type Dense struct {
	weights *tensor.Tensor
	biases  *tensor.Tensor
	gradW   *tensor.Tensor
	gradB   *tensor.Tensor
	inSize  int
	outSize int

	// input of the last forward pass
	input cache
}

// NewDense creates a dense layer with weights drawn from N(0, σ²) where σ is
// chosen by init, and zero biases.
func NewDense(in, out int, init Init, rng *tensor.RNG) *Dense {
	return &Dense{
		weights: tensor.Randn(in, out, 0, init.Stddev(in, out), rng),
		biases:  tensor.Zeros(1, out),
		gradW:   tensor.Zeros(in, out),
		gradB:   tensor.Zeros(1, out),
		inSize:  in,
		outSize: out,
	}
}

// NewDenseFrom creates a dense layer holding copies of w (in, out) and b (1, out).
func NewDenseFrom(w, b *tensor.Tensor) (*Dense, error) {
	if b.Rows != 1 || b.Cols != w.Cols {
		return nil, errors.Wrapf(tensor.ErrShape, "dense: bias (%dx%d) for weights (%dx%d)",
			b.Rows, b.Cols, w.Rows, w.Cols)
	}
	return &Dense{
		weights: w.Clone(),
		biases:  b.Clone(),
		gradW:   tensor.Zeros(w.Rows, w.Cols),
		gradB:   tensor.Zeros(1, w.Cols),
		inSize:  w.Rows,
		outSize: w.Cols,
	}, nil
}

// Forward computes x·W + b and caches x.
func (d *Dense) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if err := d.input.begin(d.Name()); err != nil {
		return nil, err
	}

	z, err := tensor.MatMul(x, d.weights)
	if err != nil {
		return nil, errors.Wrap(err, d.Name())
	}
	if err := z.AddInPlace(d.biases); err != nil {
		return nil, errors.Wrap(err, d.Name())
	}

	d.input.store(x.Clone(), z)
	return z, nil
}

// Backward computes dW = xᵀ·g, db = column sums of g, and returns g·Wᵀ.
func (d *Dense) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	x, err := d.input.take(d.Name(), grad)
	if err != nil {
		return nil, err
	}

	dW, err := tensor.MatMul(tensor.Transpose(x), grad)
	if err != nil {
		return nil, errors.Wrap(err, d.Name())
	}
	copy(d.gradW.Data, dW.Data)

	if grad.Rows == 1 {
		copy(d.gradB.Data, grad.Data)
	} else {
		copy(d.gradB.Data, tensor.SumRows(grad).Data)
	}

	dx, err := tensor.MatMul(grad, tensor.Transpose(d.weights))
	if err != nil {
		return nil, errors.Wrap(err, d.Name())
	}
	return dx, nil
}

// Parameters returns the weight and bias views, in that order.
func (d *Dense) Parameters() []Parameter {
	return []Parameter{
		{Name: "weight", Value: d.weights, Grad: d.gradW},
		{Name: "bias", Value: d.biases, Grad: d.gradB},
	}
}

// Name returns "dense(in->out)".
func (d *Dense) Name() string {
	return fmt.Sprintf("dense(%d->%d)", d.inSize, d.outSize)
}

// Reset drops the cached input.
func (d *Dense) Reset() {
	d.input.reset()
}

// Weights returns the weight tensor (in, out).
func (d *Dense) Weights() *tensor.Tensor {
	return d.weights
}

// Biases returns the bias row (1, out).
func (d *Dense) Biases() *tensor.Tensor {
	return d.biases
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

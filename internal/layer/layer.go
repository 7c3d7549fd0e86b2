// Package layer provides neural network layer implementations.
//
// Every layer follows the same contract: Forward caches what Backward needs
// and moves the layer into a "has cache" state; Backward consumes the cache,
// overwrites the layer's parameter gradients and returns the gradient with
// respect to the input. Calling Forward twice without a Backward in between
// is rejected with ErrCacheInUse; call Reset to drop a cache that will never
// be consumed (inference).
package layer

import (
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

var (
	// ErrCacheInUse is returned by Forward when the previous forward cache
	// has not been consumed by Backward or cleared with Reset.
	ErrCacheInUse = errors.New("forward cache not consumed")

	// ErrNoCache is returned by Backward when no forward pass is cached.
	ErrNoCache = errors.New("backward without forward")
)

// Layer is a neural network layer.
type Layer interface {
	// Forward computes the layer output for x and caches its operands.
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)

	// Backward maps the gradient of the last output to the gradient of
	// the last input, overwriting parameter gradients on the way.
	Backward(grad *tensor.Tensor) (*tensor.Tensor, error)

	// Parameters returns views onto the learnable tensors, empty for
	// parameter-free layers.
	Parameters() []Parameter

	// Name identifies the layer kind.
	Name() string

	// Reset drops any cached forward state.
	Reset()
}

// Parameter is a view onto a learnable tensor and its gradient, both owned
// by a layer. Layers only ever update the two tensors in place, so a
// Parameter stays valid for as long as its layer lives.
type Parameter struct {
	Name  string
	Value *tensor.Tensor
	Grad  *tensor.Tensor
}

// Size returns the number of scalar values held by the parameter.
func (p Parameter) Size() int {
	return p.Value.Size()
}

// CountParameters sums the sizes of params.
func CountParameters(params []Parameter) int {
	total := 0
	for _, p := range params {
		total += p.Size()
	}
	return total
}

// cache is the Idle -> HasCache -> Idle state machine shared by all layers.
type cache struct {
	t        *tensor.Tensor
	outRows  int
	outCols  int
	hasCache bool
}

func (c *cache) begin(name string) error {
	if c.hasCache {
		return errors.Wrapf(ErrCacheInUse, "%s forward", name)
	}
	return nil
}

func (c *cache) store(t, out *tensor.Tensor) {
	c.t = t
	c.outRows, c.outCols = out.Rows, out.Cols
	c.hasCache = true
}

// take validates grad against the cached output shape and hands back the
// cached tensor, returning the layer to Idle.
func (c *cache) take(name string, grad *tensor.Tensor) (*tensor.Tensor, error) {
	if !c.hasCache {
		return nil, errors.Wrapf(ErrNoCache, "%s backward", name)
	}
	if grad.Rows != c.outRows || grad.Cols != c.outCols {
		return nil, errors.Wrapf(tensor.ErrShape, "%s backward: gradient (%dx%d) for output (%dx%d)",
			name, grad.Rows, grad.Cols, c.outRows, c.outCols)
	}
	t := c.t
	c.reset()
	return t, nil
}

func (c *cache) reset() {
	c.t = nil
	c.hasCache = false
}

// Package net provides core neural network types.
package net

import (
	"fmt"

	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

// Model is anything that can be trained with the sequential step
// ZeroGradients -> Forward -> loss -> Backward -> optimizer Step.
type Model interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	Backward(grad *tensor.Tensor) (*tensor.Tensor, error)
	Predict(x *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []layer.Parameter
	ZeroGradients()
	Reset()
}

// Network is an ordered collection of layers that can be forwarded and
// backwarded. Layer order fixes both the composition and the order in
// which Parameters enumerates learnable tensors.
type Network struct {
	layers []layer.Layer
}

// New creates a new neural network with the given layers.
func New(layers ...layer.Layer) *Network {
	return &Network{layers: layers}
}

// Add appends a layer. Layers must be added before an optimizer is bound.
func (n *Network) Add(l layer.Layer) {
	n.layers = append(n.layers, l)
}

// Forward performs a forward pass through all layers.
// On failure every layer's cache is dropped.
func (n *Network) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	curr := x
	for i, l := range n.layers {
		out, err := l.Forward(curr)
		if err != nil {
			n.Reset()
			return nil, errors.Wrapf(err, "layer %d (%s)", i, l.Name())
		}
		curr = out
	}
	return curr, nil
}

// Backward performs a backward pass through all layers in reverse order
// and returns the gradient w.r.t. the network input.
func (n *Network) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		out, err := n.layers[i].Backward(curr)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d (%s)", i, n.layers[i].Name())
		}
		curr = out
	}
	return curr, nil
}

// Predict runs a forward pass without leaving caches behind.
func (n *Network) Predict(x *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := n.Forward(x)
	n.Reset()
	return out, err
}

// Reset drops every layer's forward cache.
func (n *Network) Reset() {
	for _, l := range n.layers {
		l.Reset()
	}
}

// Parameters returns every layer's parameters concatenated in layer order.
// Names are prefixed with the layer index, e.g. "2.weight".
func (n *Network) Parameters() []layer.Parameter {
	var params []layer.Parameter
	for i, l := range n.layers {
		for _, p := range l.Parameters() {
			p.Name = fmt.Sprintf("%d.%s", i, p.Name)
			params = append(params, p)
		}
	}
	return params
}

// ZeroGradients sets every gradient tensor reachable through Parameters to zero.
func (n *Network) ZeroGradients() {
	for _, p := range n.Parameters() {
		p.Grad.Zero()
	}
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Len returns the number of layers.
func (n *Network) Len() int {
	return len(n.layers)
}

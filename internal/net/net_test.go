// Package net provides unit tests for the network container.
package net

import (
	"testing"

	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/loss"
	"github.com/FlavioCFOliveira/imgae/internal/opt"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTensor(t *testing.T, rows, cols int, data ...float32) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromSlice(rows, cols, data)
	require.NoError(t, err)
	return out
}

// tinyNetwork builds 4 -> 3 (ReLU) -> 4 (Sigmoid).
func tinyNetwork(seed uint64) *Network {
	rng := tensor.NewRNG(seed)
	return New(
		layer.NewDense(4, 3, layer.He, rng),
		layer.NewReLU(),
		layer.NewDense(3, 4, layer.Xavier, rng),
		layer.NewSigmoid(),
	)
}

func TestNetworkForwardShape(t *testing.T) {
	n := tinyNetwork(1)
	y, err := n.Forward(mustTensor(t, 1, 4, 0.1, 0.2, 0.3, 0.4))
	require.NoError(t, err)
	assert.Equal(t, 1, y.Rows)
	assert.Equal(t, 4, y.Cols)
	for _, v := range y.Data {
		assert.True(t, v > 0 && v < 1, "sigmoid output %v out of range", v)
	}
}

func TestNetworkLiteralComposition(t *testing.T) {
	d, err := layer.NewDenseFrom(
		mustTensor(t, 2, 2, 1, -1, 2, 1),
		mustTensor(t, 1, 2, 0, -10),
	)
	require.NoError(t, err)
	n := New(d, layer.NewReLU())

	y, err := n.Forward(mustTensor(t, 1, 2, 1, 2))
	require.NoError(t, err)
	// x·W + b = [5, -9]; ReLU -> [5, 0]
	assert.Equal(t, []float32{5, 0}, y.Data)

	dx, err := n.Backward(mustTensor(t, 1, 2, 1, 1))
	require.NoError(t, err)
	// only the first unit passes gradient: dx = [1, 0]·Wᵀ = [1, 2]
	assert.InDeltaSlice(t, []float32{1, 2}, dx.Data, 1e-6)
	assert.Equal(t, []float32{1, 0, 2, 0}, d.Parameters()[0].Grad.Data)
	assert.Equal(t, []float32{1, 0}, d.Parameters()[1].Grad.Data)
}

func TestNetworkParametersOrderAndNames(t *testing.T) {
	n := tinyNetwork(1)
	params := n.Parameters()
	require.Len(t, params, 4)

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"0.weight", "0.bias", "2.weight", "2.bias"}, names)

	assert.Equal(t, [2]int{4, 3}, [2]int{params[0].Value.Rows, params[0].Value.Cols})
	assert.Equal(t, [2]int{1, 3}, [2]int{params[1].Value.Rows, params[1].Value.Cols})
	assert.Equal(t, [2]int{3, 4}, [2]int{params[2].Value.Rows, params[2].Value.Cols})
	assert.Equal(t, [2]int{1, 4}, [2]int{params[3].Value.Rows, params[3].Value.Cols})
	assert.Equal(t, 12+3+12+4, layer.CountParameters(params))
}

func TestNetworkParametersAreStableViews(t *testing.T) {
	n := tinyNetwork(1)
	first := n.Parameters()
	second := n.Parameters()
	for i := range first {
		assert.Same(t, first[i].Value, second[i].Value)
		assert.Same(t, first[i].Grad, second[i].Grad)
	}
}

func TestNetworkZeroGradients(t *testing.T) {
	n := tinyNetwork(1)
	x := mustTensor(t, 1, 4, 0.5, 0.5, 0.5, 0.5)
	_, err := n.Forward(x)
	require.NoError(t, err)
	_, err = n.Backward(tensor.Full(1, 4, 1))
	require.NoError(t, err)

	nonZero := false
	for _, p := range n.Parameters() {
		for _, g := range p.Grad.Data {
			nonZero = nonZero || g != 0
		}
	}
	require.True(t, nonZero)

	n.ZeroGradients()
	for _, p := range n.Parameters() {
		for _, g := range p.Grad.Data {
			assert.Zero(t, g)
		}
	}
}

func TestNetworkBackwardWithoutForward(t *testing.T) {
	n := tinyNetwork(1)
	_, err := n.Backward(tensor.Full(1, 4, 1))
	assert.ErrorIs(t, err, layer.ErrNoCache)
}

func TestNetworkDoubleForward(t *testing.T) {
	n := tinyNetwork(1)
	x := tensor.Full(1, 4, 0.5)
	_, err := n.Forward(x)
	require.NoError(t, err)
	_, err = n.Forward(x)
	assert.ErrorIs(t, err, layer.ErrCacheInUse)

	// The failed forward resets every layer.
	_, err = n.Forward(x)
	assert.NoError(t, err)
}

func TestNetworkForwardShapeError(t *testing.T) {
	n := tinyNetwork(1)
	_, err := n.Forward(tensor.Full(1, 5, 0.5))
	require.ErrorIs(t, err, tensor.ErrShape)
	assert.Contains(t, err.Error(), "layer 0")

	_, err = n.Forward(tensor.Full(1, 4, 0.5))
	assert.NoError(t, err)
}

func TestNetworkPredictLeavesNoCache(t *testing.T) {
	n := tinyNetwork(1)
	x := tensor.Full(1, 4, 0.5)

	a, err := n.Predict(x)
	require.NoError(t, err)
	b, err := n.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)

	_, err = n.Backward(tensor.Full(1, 4, 1))
	assert.ErrorIs(t, err, layer.ErrNoCache)
}

func TestNetworkAdd(t *testing.T) {
	n := New()
	assert.Equal(t, 0, n.Len())
	n.Add(layer.NewReLU())
	n.Add(layer.NewSigmoid())
	assert.Equal(t, 2, n.Len())
	assert.Empty(t, n.Parameters())
	assert.Equal(t, "sigmoid", n.Layers()[1].Name())
}

func TestNetworkConvergesOnSingleSample(t *testing.T) {
	n := tinyNetwork(42)
	x := mustTensor(t, 1, 4, 0.2, 0.4, 0.6, 0.8)

	adam := opt.NewAdam(n.Parameters(), opt.AdamConfig{LR: 0.01, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8})
	trainer := NewTrainer(n, loss.NewMSE(), adam)

	history, err := trainer.Fit(x, x, 1000)
	require.NoError(t, err)
	require.Len(t, history, 1000)
	assert.Less(t, history[len(history)-1], history[0])
	assert.Less(t, history[len(history)-1], float32(1e-3))
	assert.Equal(t, 1000, adam.Timestep())
}

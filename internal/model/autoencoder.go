// Package model provides the fixed-topology image autoencoder.
package model

import (
	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/net"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

// DefaultInputSize is a flattened 64x64 RGB image.
const DefaultInputSize = 64 * 64 * 3

// Topology holds the layer widths of the autoencoder.
// The decoder mirrors the encoder: Input -> Hidden1 -> Hidden2 -> Latent ->
// Hidden2 -> Hidden1 -> Input.
type Topology struct {
	Input   int
	Hidden1 int
	Hidden2 int
	Latent  int
}

// DefaultTopology returns the 12288 -> 512 -> 128 -> 64 layout.
func DefaultTopology() Topology {
	return Topology{
		Input:   DefaultInputSize,
		Hidden1: 512,
		Hidden2: 128,
		Latent:  64,
	}
}

// Validate reports whether every width is positive.
func (t Topology) Validate() error {
	if t.Input <= 0 || t.Hidden1 <= 0 || t.Hidden2 <= 0 || t.Latent <= 0 {
		return errors.Errorf("invalid topology %d-%d-%d-%d", t.Input, t.Hidden1, t.Hidden2, t.Latent)
	}
	return nil
}

// Autoencoder is an encoder Network followed by a decoder Network.
type Autoencoder struct {
	topology Topology
	encoder  *net.Network
	decoder  *net.Network
}

var _ net.Model = (*Autoencoder)(nil)

// New creates the default autoencoder for inputs of inputSize values.
func New(inputSize int, rng *tensor.RNG) (*Autoencoder, error) {
	t := DefaultTopology()
	t.Input = inputSize
	return NewWithTopology(t, rng)
}

// NewWithTopology creates an autoencoder with the given widths. ReLU-fed
// layers use He initialization, the output layer uses Xavier.
func NewWithTopology(t Topology, rng *tensor.RNG) (*Autoencoder, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = tensor.NewRNG(tensor.DefaultSeed)
	}

	encoder := net.New(
		layer.NewDense(t.Input, t.Hidden1, layer.He, rng),
		layer.NewReLU(),
		layer.NewDense(t.Hidden1, t.Hidden2, layer.He, rng),
		layer.NewReLU(),
		layer.NewDense(t.Hidden2, t.Latent, layer.He, rng),
	)
	decoder := net.New(
		layer.NewDense(t.Latent, t.Hidden2, layer.He, rng),
		layer.NewReLU(),
		layer.NewDense(t.Hidden2, t.Hidden1, layer.He, rng),
		layer.NewReLU(),
		layer.NewDense(t.Hidden1, t.Input, layer.Xavier, rng),
		layer.NewSigmoid(),
	)

	return &Autoencoder{
		topology: t,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

// Forward encodes then decodes x, caching operands for Backward.
func (a *Autoencoder) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	latent, err := a.encoder.Forward(x)
	if err != nil {
		return nil, errors.Wrap(err, "encoder")
	}
	out, err := a.decoder.Forward(latent)
	if err != nil {
		a.encoder.Reset()
		return nil, errors.Wrap(err, "decoder")
	}
	return out, nil
}

// Backward propagates grad through the decoder then the encoder.
func (a *Autoencoder) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	g, err := a.decoder.Backward(grad)
	if err != nil {
		return nil, errors.Wrap(err, "decoder")
	}
	dx, err := a.encoder.Backward(g)
	if err != nil {
		return nil, errors.Wrap(err, "encoder")
	}
	return dx, nil
}

// Encode maps x to its latent vector without leaving caches behind.
func (a *Autoencoder) Encode(x *tensor.Tensor) (*tensor.Tensor, error) {
	latent, err := a.encoder.Predict(x)
	return latent, errors.Wrap(err, "encoder")
}

// Decode maps a latent vector to a reconstruction without leaving caches behind.
func (a *Autoencoder) Decode(latent *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := a.decoder.Predict(latent)
	return out, errors.Wrap(err, "decoder")
}

// Predict reconstructs x without leaving caches behind.
func (a *Autoencoder) Predict(x *tensor.Tensor) (*tensor.Tensor, error) {
	latent, err := a.Encode(x)
	if err != nil {
		return nil, err
	}
	return a.Decode(latent)
}

// Parameters returns the encoder parameters followed by the decoder
// parameters. Names are prefixed with "encoder." or "decoder.".
func (a *Autoencoder) Parameters() []layer.Parameter {
	enc := a.encoder.Parameters()
	dec := a.decoder.Parameters()
	params := make([]layer.Parameter, 0, len(enc)+len(dec))
	for _, p := range enc {
		p.Name = "encoder." + p.Name
		params = append(params, p)
	}
	for _, p := range dec {
		p.Name = "decoder." + p.Name
		params = append(params, p)
	}
	return params
}

// ZeroGradients zeroes every gradient of both halves.
func (a *Autoencoder) ZeroGradients() {
	a.encoder.ZeroGradients()
	a.decoder.ZeroGradients()
}

// Reset drops every forward cache.
func (a *Autoencoder) Reset() {
	a.encoder.Reset()
	a.decoder.Reset()
}

func (a *Autoencoder) Encoder() *net.Network { return a.encoder }
func (a *Autoencoder) Decoder() *net.Network { return a.decoder }
func (a *Autoencoder) Topology() Topology    { return a.topology }
func (a *Autoencoder) InputSize() int        { return a.topology.Input }
func (a *Autoencoder) LatentSize() int       { return a.topology.Latent }

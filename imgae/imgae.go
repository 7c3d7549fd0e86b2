// Package imgae re-exports the autoencoder training API for use outside this
// module.
package imgae

import (
	"github.com/FlavioCFOliveira/imgae/internal/imageio"
	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/loss"
	"github.com/FlavioCFOliveira/imgae/internal/model"
	"github.com/FlavioCFOliveira/imgae/internal/net"
	"github.com/FlavioCFOliveira/imgae/internal/opt"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
)

// Re-export common types for easier access
type (
	Tensor      = tensor.Tensor
	RNG         = tensor.RNG
	Layer       = layer.Layer
	Parameter   = layer.Parameter
	Network     = net.Network
	Model       = net.Model
	Loss        = loss.Loss
	Optimizer   = opt.Optimizer
	AdamConfig  = opt.AdamConfig
	Autoencoder = model.Autoencoder
	Topology    = model.Topology
	Trainer     = net.Trainer
	Callback    = net.Callback
)

// Errors
var (
	ErrShape         = tensor.ErrShape
	ErrCacheInUse    = layer.ErrCacheInUse
	ErrNoCache       = layer.ErrNoCache
	ErrNoForward     = loss.ErrNoForward
	ErrIO            = net.ErrIO
	ErrModelMismatch = net.ErrModelMismatch
)

// Tensors
func NewRNG(seed uint64) *RNG { return tensor.NewRNG(seed) }

func FromSlice(rows, cols int, data []float32) (*Tensor, error) {
	return tensor.FromSlice(rows, cols, data)
}

// Layers
func Dense(in, out int, init layer.Init, rng *RNG) Layer {
	return layer.NewDense(in, out, init, rng)
}

func ReLU() Layer    { return layer.NewReLU() }
func Sigmoid() Layer { return layer.NewSigmoid() }

const (
	He     = layer.He
	Xavier = layer.Xavier
)

// Models
func NewNetwork(layers ...Layer) *Network { return net.New(layers...) }

func NewAutoencoder(inputSize int, rng *RNG) (*Autoencoder, error) {
	return model.New(inputSize, rng)
}

func NewAutoencoderWithTopology(t Topology, rng *RNG) (*Autoencoder, error) {
	return model.NewWithTopology(t, rng)
}

// Training
func MSE() *loss.MSE { return loss.NewMSE() }

func Adam(params []Parameter, lr float32) *opt.Adam {
	cfg := opt.DefaultAdamConfig()
	cfg.LR = lr
	return opt.NewAdam(params, cfg)
}

func NewTrainer(m Model, l Loss, o Optimizer, callbacks ...Callback) *Trainer {
	return net.NewTrainer(m, l, o, callbacks...)
}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, minDelta float32) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

func ReduceLROnPlateau(optimizer Optimizer, factor float32, patience int, threshold float32, cooldown int, minLR float32) Callback {
	return net.NewSchedulerCallback(opt.NewReduceLROnPlateau(optimizer, factor, patience, threshold, cooldown, minLR))
}

// Persistence
func Save(path string, m Model) error { return net.SaveFile(path, m.Parameters()) }
func Load(path string, m Model) error { return net.LoadFile(path, m.Parameters()) }

func ExportGGUF(path string, m Model, f16 bool) error {
	t := net.GGMLTypeF32
	if f16 {
		t = net.GGMLTypeF16
	}
	return net.SaveGGUF(path, "imgae", m.Parameters(), t)
}

// Images
func LoadImage(path string) (*Tensor, error)  { return imageio.Load(path) }
func SaveImage(t *Tensor, path string) error { return imageio.Save(t, path) }

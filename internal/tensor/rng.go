package tensor

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed seeds generators when the caller has no preference.
const DefaultSeed uint64 = 42

// RNG is an explicitly seeded random source for weight initialization.
// It is not safe for concurrent use.
type RNG struct {
	src rand.Source
}

// NewRNG returns a generator seeded with seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{src: rand.NewSource(seed)}
}

// Normal returns a normal distribution drawing from r.
func (r *RNG) Normal(mean, stddev float64) distuv.Normal {
	return distuv.Normal{Mu: mean, Sigma: stddev, Src: r.src}
}

// Randn returns a rows x cols tensor of independent N(mean, stddev²)
// samples drawn from rng. A nil rng uses a fresh DefaultSeed generator.
func Randn(rows, cols int, mean, stddev float32, rng *RNG) *Tensor {
	if rng == nil {
		rng = NewRNG(DefaultSeed)
	}
	dist := rng.Normal(float64(mean), float64(stddev))
	t := New(rows, cols)
	for i := range t.Data {
		t.Data[i] = float32(dist.Rand())
	}
	return t
}

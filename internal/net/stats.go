package net

import (
	"math"

	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the values of a tensor.
type Stats struct {
	Min, Max  float64
	Mean, Std float64
}

// LatentStats returns min, max, mean and population standard deviation of
// every value in t.
func LatentStats(t *tensor.Tensor) (Stats, error) {
	if t == nil || t.Size() == 0 {
		return Stats{}, errors.Wrap(tensor.ErrShape, "latent stats of empty tensor")
	}
	values := make([]float64, t.Size())
	for i, v := range t.Data {
		values[i] = float64(v)
	}

	mean, variance := stat.PopMeanVariance(values, nil)
	return Stats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: mean,
		Std:  math.Sqrt(variance),
	}, nil
}

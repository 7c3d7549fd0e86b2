package net

import (
	"time"

	"github.com/FlavioCFOliveira/imgae/internal/loss"
	"github.com/FlavioCFOliveira/imgae/internal/opt"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

// Trainer runs the sequential training loop of a Model against a fixed
// input/target pair.
type Trainer struct {
	Model     Model
	Loss      loss.Loss
	Optimizer opt.Optimizer
	Callbacks []Callback
}

// NewTrainer creates a trainer. The optimizer must already be bound to
// model.Parameters().
func NewTrainer(model Model, l loss.Loss, optimizer opt.Optimizer, callbacks ...Callback) *Trainer {
	return &Trainer{
		Model:     model,
		Loss:      l,
		Optimizer: optimizer,
		Callbacks: callbacks,
	}
}

// Step performs one optimization step:
// ZeroGradients -> Forward -> loss Forward -> loss Backward -> Backward -> optimizer Step.
// It returns the loss computed before the update. On failure no parameter is
// modified and the model is left without forward caches.
func (t *Trainer) Step(x, target *tensor.Tensor) (l float32, err error) {
	defer func() {
		if err != nil {
			t.Model.Reset()
		}
	}()
	t.Model.ZeroGradients()

	pred, err := t.Model.Forward(x)
	if err != nil {
		return 0, errors.Wrap(err, "forward")
	}
	l, err = t.Loss.Forward(pred, target)
	if err != nil {
		return 0, errors.Wrap(err, "loss")
	}
	grad, err := t.Loss.Backward()
	if err != nil {
		return 0, errors.Wrap(err, "loss backward")
	}
	if _, err := t.Model.Backward(grad); err != nil {
		return 0, errors.Wrap(err, "backward")
	}

	t.Optimizer.Step()
	return l, nil
}

// Fit runs up to epochs training steps and returns the loss of every
// completed epoch. Training ends early when a Stopper callback asks for it.
func (t *Trainer) Fit(x, target *tensor.Tensor, epochs int) ([]float32, error) {
	for _, cb := range t.Callbacks {
		if err := cb.OnTrainBegin(t.Model); err != nil {
			return nil, errors.Wrap(err, "train begin")
		}
	}

	history := make([]float32, 0, epochs)
	var fitErr error
	for epoch := 1; epoch <= epochs; epoch++ {
		start := time.Now()
		l, err := t.Step(x, target)
		if err != nil {
			fitErr = errors.Wrapf(err, "epoch %d", epoch)
			break
		}
		history = append(history, l)

		stats := EpochStats{
			Epoch:        epoch,
			Epochs:       epochs,
			Loss:         l,
			Duration:     time.Since(start),
			LearningRate: t.Optimizer.LearningRate(),
		}
		if fitErr = t.epochEnd(stats); fitErr != nil || t.shouldStop() {
			break
		}
	}

	for _, cb := range t.Callbacks {
		if err := cb.OnTrainEnd(t.Model); err != nil && fitErr == nil {
			fitErr = errors.Wrap(err, "train end")
		}
	}
	return history, fitErr
}

func (t *Trainer) epochEnd(stats EpochStats) error {
	for _, cb := range t.Callbacks {
		if err := cb.OnEpochEnd(stats, t.Model); err != nil {
			return errors.Wrapf(err, "epoch %d callback", stats.Epoch)
		}
	}
	return nil
}

func (t *Trainer) shouldStop() bool {
	for _, cb := range t.Callbacks {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}

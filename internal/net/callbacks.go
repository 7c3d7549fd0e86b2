package net

import (
	"log"
	"math"
	"time"

	"github.com/FlavioCFOliveira/imgae/internal/opt"
)

// EpochStats describes a finished training epoch.
type EpochStats struct {
	Epoch        int // 1-based
	Epochs       int
	Loss         float32
	Duration     time.Duration
	LearningRate float32
}

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(m Model) error
	OnTrainEnd(m Model) error
	OnEpochEnd(stats EpochStats, m Model) error
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(m Model) error                 { return nil }
func (c BaseCallback) OnTrainEnd(m Model) error                   { return nil }
func (c BaseCallback) OnEpochEnd(stats EpochStats, m Model) error { return nil }

func loggerOrDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}

// SchedulerCallback is a callback that wraps a learning rate scheduler.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(stats EpochStats, m Model) error {
	c.scheduler.Step()
	c.scheduler.StepWithLoss(stats.Loss)
	return nil
}

// EarlyStopping stops training when the loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float32
	Log       *log.Logger

	bestLoss     float32
	numBadEpochs int
	Stopped      bool
}

func NewEarlyStopping(patience int, threshold float32) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat32,
	}
}

func (c *EarlyStopping) OnEpochEnd(stats EpochStats, m Model) error {
	if stats.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = stats.Loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		loggerOrDefault(c.Log).Printf("early stopping at epoch %d: loss %.6f did not improve for %d epochs",
			stats.Epoch, stats.Loss, c.Patience)
		c.Stopped = true
	}
	return nil
}

// ShouldStop implements Stopper.
func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// ModelCheckpoint saves the model parameters whenever the loss reaches a new best.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	Log      *log.Logger

	bestLoss float32
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.MaxFloat32,
	}
}

func (c *ModelCheckpoint) OnEpochEnd(stats EpochStats, m Model) error {
	if stats.Loss >= c.bestLoss {
		return nil
	}
	c.bestLoss = stats.Loss
	if err := SaveFile(c.Filename, m.Parameters()); err != nil {
		return err
	}
	loggerOrDefault(c.Log).Printf("checkpoint saved: loss %.6f is new best", stats.Loss)
	return nil
}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	Log      *log.Logger
}

func (c Logger) OnEpochEnd(stats EpochStats, m Model) error {
	if c.Interval > 0 && (stats.Epoch%c.Interval == 0 || stats.Epoch == stats.Epochs) {
		loggerOrDefault(c.Log).Printf("Epoch %d/%d  loss=%.6f  time=%dms",
			stats.Epoch, stats.Epochs, stats.Loss, stats.Duration.Milliseconds())
	}
	return nil
}

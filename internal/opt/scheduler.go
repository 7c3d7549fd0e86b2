package opt

import "math"

// Scheduler adjusts an optimizer's learning rate between epochs.
type Scheduler interface {
	Step()
	StepWithLoss(loss float32)
	GetLR() float32
}

// BaseScheduler provides default implementations for Scheduler.
type BaseScheduler struct{}

func (s BaseScheduler) Step()                     {}
func (s BaseScheduler) StepWithLoss(loss float32) {}

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR struct {
	BaseScheduler
	optimizer Optimizer
	stepSize  int
	gamma     float32
	lastEpoch int
}

func NewStepLR(optimizer Optimizer, stepSize int, gamma float32) *StepLR {
	return &StepLR{
		optimizer: optimizer,
		stepSize:  stepSize,
		gamma:     gamma,
	}
}

func (s *StepLR) Step() {
	s.lastEpoch++
	if s.stepSize > 0 && s.lastEpoch%s.stepSize == 0 {
		s.optimizer.SetLearningRate(s.optimizer.LearningRate() * s.gamma)
	}
}

func (s *StepLR) GetLR() float32 {
	return s.optimizer.LearningRate()
}

// ExponentialLR multiplies the learning rate by gamma every epoch.
type ExponentialLR struct {
	BaseScheduler
	optimizer Optimizer
	gamma     float32
}

func NewExponentialLR(optimizer Optimizer, gamma float32) *ExponentialLR {
	return &ExponentialLR{
		optimizer: optimizer,
		gamma:     gamma,
	}
}

func (s *ExponentialLR) Step() {
	s.optimizer.SetLearningRate(s.optimizer.LearningRate() * s.gamma)
}

func (s *ExponentialLR) GetLR() float32 {
	return s.optimizer.LearningRate()
}

// ReduceLROnPlateau reduces the learning rate when the loss has stopped improving.
type ReduceLROnPlateau struct {
	BaseScheduler
	optimizer Optimizer
	factor    float32
	patience  int
	threshold float32
	cooldown  int
	minLR     float32

	bestLoss        float32
	numBadEpochs    int
	cooldownCounter int
}

// NewReduceLROnPlateau multiplies the learning rate by factor after patience
// epochs without an improvement larger than threshold, then waits cooldown
// epochs before counting bad epochs again. The rate never drops below minLR.
func NewReduceLROnPlateau(optimizer Optimizer, factor float32, patience int, threshold float32, cooldown int, minLR float32) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		cooldown:  cooldown,
		minLR:     minLR,
		bestLoss:  math.MaxFloat32,
	}
}

func (s *ReduceLROnPlateau) StepWithLoss(currentLoss float32) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if currentLoss < s.bestLoss-s.threshold {
		s.bestLoss = currentLoss
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs >= s.patience {
		newLR := s.optimizer.LearningRate() * s.factor
		if newLR < s.minLR {
			newLR = s.minLR
		}
		s.optimizer.SetLearningRate(newLR)
		s.numBadEpochs = 0
		s.cooldownCounter = s.cooldown
	}
}

func (s *ReduceLROnPlateau) GetLR() float32 {
	return s.optimizer.LearningRate()
}

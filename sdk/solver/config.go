package solver

import (
	"errors"
	"fmt"
)

// TrainingConfig aggregates parameters that control Q-learning runs.
type TrainingConfig struct {
	Episodes       int     `json:"episodes"`
	LearningRate   float64 `json:"learning_rate"`
	DiscountFactor float64 `json:"discount_factor"`
	Epsilon        float64 `json:"epsilon"`
	Seed           int64   `json:"seed"`
	// Workers is the number of goroutines playing episodes. With one worker
	// a run is fully reproducible from its seed.
	Workers int `json:"workers"`
	// ProgressEvery sets the batch size between progress reports; zero uses
	// one percent of Episodes.
	ProgressEvery int `json:"progress_every"`
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Episodes <= 0 {
		return errors.New("episodes must be > 0")
	}
	if !(c.LearningRate > 0 && c.LearningRate <= 1) {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", c.LearningRate)
	}
	if !(c.DiscountFactor >= 0 && c.DiscountFactor <= 1) {
		return fmt.Errorf("discount factor must be in [0, 1], got %v", c.DiscountFactor)
	}
	if !(c.Epsilon >= 0 && c.Epsilon <= 1) {
		return fmt.Errorf("epsilon must be in [0, 1], got %v", c.Epsilon)
	}
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	return nil
}

// Learner returns the update rule configured by c.
func (c TrainingConfig) Learner() Learner {
	return Learner{LearningRate: c.LearningRate, DiscountFactor: c.DiscountFactor}
}

// EvalConfig controls a greedy evaluation run.
type EvalConfig struct {
	Games   int   `json:"games"`
	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"`
}

// Validate ensures the evaluation parameters are safe to use.
func (c EvalConfig) Validate() error {
	if c.Games <= 0 {
		return errors.New("games must be > 0")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	return nil
}

// DefaultTrainingConfig returns the parameters of the reference experiment.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Episodes:       1_000_000,
		LearningRate:   0.1,
		DiscountFactor: 0.99,
		Epsilon:        0.1,
		Seed:           1,
		Workers:        1,
		ProgressEvery:  0,
	}
}

// DefaultEvalConfig returns the evaluation parameters of the reference
// experiment.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Games:   10_000,
		Seed:    1,
		Workers: 1,
	}
}

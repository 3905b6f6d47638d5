package solver

import (
	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
)

// Shaped rewards for a single discard.
const (
	RewardStraight = 10.0
	RewardLonger   = 1.0
	RewardShorter  = -1.0
)

// Reward scores the move from old to next: a straight earns RewardStraight,
// otherwise growing the longest run earns RewardLonger and shrinking it
// RewardShorter. An unchanged run scores 0.
func Reward(old, next hand.Hand) float64 {
	if hand.HasStraight(next) {
		return RewardStraight
	}
	oldRun, newRun := hand.LongestRun(old), hand.LongestRun(next)
	switch {
	case newRun > oldRun:
		return RewardLonger
	case newRun < oldRun:
		return RewardShorter
	default:
		return 0
	}
}

// Transition records one discard round.
type Transition struct {
	State     State
	Action    Action
	Reward    float64
	Next      State
	Discarded []deck.Card
	Drawn     []deck.Card
	// TDError is the temporal-difference error applied by the learner, zero
	// when no update was made.
	TDError float64
}

// Learner applies one-step Q-learning updates.
type Learner struct {
	LearningRate   float64
	DiscountFactor float64
}

// Update moves table[tr.State][tr.Action] towards
// tr.Reward + DiscountFactor * max_a table[tr.Next][a] and returns the TD
// error that was applied.
func (l Learner) Update(table *ValueTable, tr Transition) (float64, error) {
	var tdError float64
	_, err := table.Update(Key{State: tr.State, Action: tr.Action}, tr.Next, func(current, bestNext float64) float64 {
		target := tr.Reward + l.DiscountFactor*bestNext
		tdError = target - current
		return current + l.LearningRate*tdError
	})
	if err != nil {
		return 0, err
	}
	return tdError, nil
}

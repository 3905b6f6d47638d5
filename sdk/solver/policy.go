package solver

import rand "math/rand/v2"

// SelectAction picks an action for state using an epsilon-greedy rule: with
// probability epsilon a uniformly random action, otherwise the greedy action
// from table (ties go to the earliest action in Actions() order). With
// epsilon == 0 the choice is deterministic and rng is not consumed.
func SelectAction(table *ValueTable, state State, epsilon float64, rng *rand.Rand) Action {
	if epsilon > 0 && rng.Float64() < epsilon {
		return actionSpace[rng.IntN(ActionCount)]
	}
	a, _ := table.Best(state)
	return a
}

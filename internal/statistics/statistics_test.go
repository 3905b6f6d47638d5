package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsBasics(t *testing.T) {
	t.Parallel()

	var s Statistics
	s.Add(GameResult{Won: true, Round: 0})
	s.Add(GameResult{Won: true, Round: 2, Discarded: 7})
	s.Add(GameResult{Won: false, Discarded: 15})
	s.Add(GameResult{Won: false, Discarded: 10})

	require.NoError(t, s.Validate())
	assert.Equal(t, 4, s.Games)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, [MaxRounds + 1]int{1, 0, 1, 0}, s.WinsByRound)
	assert.InDelta(t, 0.5, s.Mean(), 1e-12)
	assert.InDelta(t, 1.0/3.0, s.Variance(), 1e-12)
	assert.InDelta(t, 8.0, s.AvgDiscarded(), 1e-12)
}

func TestStatisticsEmpty(t *testing.T) {
	t.Parallel()

	var s Statistics
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.StdError())
	lo, hi := s.ConfidenceInterval95()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
	assert.Error(t, s.Validate())
}

func TestWilsonIntervalStaysInRange(t *testing.T) {
	t.Parallel()

	for _, wins := range []int{0, 1, 50, 99, 100} {
		s := Statistics{Games: 100, Wins: wins}
		lo, hi := s.ConfidenceInterval95()
		assert.GreaterOrEqual(t, lo, 0.0)
		assert.LessOrEqual(t, hi, 1.0)
		assert.LessOrEqual(t, lo, s.Mean())
		assert.GreaterOrEqual(t, hi, s.Mean())
	}
}

func TestMergeMatchesSequentialAdd(t *testing.T) {
	t.Parallel()

	results := []GameResult{
		{Won: true, Round: 1, Discarded: 3},
		{Won: false, Discarded: 12},
		{Won: true, Round: 3, Discarded: 9},
		{Won: true, Round: 0},
		{Won: false, Discarded: 6},
	}

	var all Statistics
	for _, r := range results {
		all.Add(r)
	}

	var a, b Statistics
	for i, r := range results {
		if i%2 == 0 {
			a.Add(r)
		} else {
			b.Add(r)
		}
	}
	a.Merge(b)

	assert.Equal(t, all, a)
}

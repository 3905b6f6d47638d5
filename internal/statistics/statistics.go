package statistics

import (
	"fmt"
	"math"
)

// MaxRounds is the number of discard opportunities tracked per game.
const MaxRounds = 3

// GameResult is the outcome of one greedy game.
type GameResult struct {
	Won bool
	// Round is the number of discards made before the straight appeared
	// (0 means it was dealt). Ignored for losses.
	Round int
	// Discarded is the total number of cards replaced during the game.
	Discarded int
}

// Statistics accumulates win/loss results of evaluation games.
type Statistics struct {
	Games     int
	Wins      int
	Discarded int

	// WinsByRound[r] counts wins that needed r discards (0..MaxRounds).
	WinsByRound [MaxRounds + 1]int
}

// Add incorporates a single game result.
func (s *Statistics) Add(r GameResult) {
	s.Games++
	s.Discarded += r.Discarded
	if !r.Won {
		return
	}
	s.Wins++
	if r.Round >= 0 && r.Round <= MaxRounds {
		s.WinsByRound[r.Round]++
	}
}

// Merge folds other into s. Merging partial results gathered by separate
// workers yields the same totals as adding every game to one accumulator.
func (s *Statistics) Merge(other Statistics) {
	s.Games += other.Games
	s.Wins += other.Wins
	s.Discarded += other.Discarded
	for i := range s.WinsByRound {
		s.WinsByRound[i] += other.WinsByRound[i]
	}
}

// Mean returns the win rate in [0,1].
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// Variance returns the sample variance of the 0/1 outcomes.
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	p := s.Mean()
	n := float64(s.Games)
	return p * (1 - p) * n / (n - 1)
}

// StdDev returns the sample standard deviation of the outcomes.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the win rate.
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% Wilson score interval for the win
// rate. Unlike the normal approximation it stays inside [0,1] and behaves at
// win rates near 0 or 1.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	if s.Games == 0 {
		return 0, 1
	}
	const z = 1.96
	n := float64(s.Games)
	p := s.Mean()
	denom := 1 + z*z/n
	centre := (p + z*z/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom
	lo, hi := math.Max(0, centre-margin), math.Min(1, centre+margin)
	if s.Wins == 0 {
		lo = 0
	}
	if s.Wins == s.Games {
		hi = 1
	}
	return lo, hi
}

// AvgDiscarded returns the mean number of cards replaced per game.
func (s *Statistics) AvgDiscarded() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Discarded) / float64(s.Games)
}

// Validate checks that the counters are consistent.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if s.Wins > s.Games {
		return fmt.Errorf("wins (%d) exceed games (%d)", s.Wins, s.Games)
	}
	total := 0
	for _, w := range s.WinsByRound {
		total += w
	}
	if total != s.Wins {
		return fmt.Errorf("wins by round total (%d) does not match wins (%d)", total, s.Wins)
	}
	return nil
}

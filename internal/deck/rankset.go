package deck

import "math/bits"

// StraightLength is the number of consecutive ranks that make a straight.
const StraightLength = 5

// RankSet is the set of distinct ranks present in a group of cards. Bit r is
// set when rank value r (2..14) is present.
type RankSet uint16

const (
	validRankBits RankSet = ((1 << 15) - 1) &^ 3
	wheelRanks    RankSet = 1<<Ace | 1<<Two | 1<<Three | 1<<Four | 1<<Five
)

// RankSetOf collects the distinct ranks of cards.
func RankSetOf(cards []Card) RankSet {
	var s RankSet
	for _, c := range cards {
		s = s.Add(c.Rank)
	}
	return s
}

// Add returns the set with r included.
func (s RankSet) Add(r Rank) RankSet {
	return s | 1<<r
}

// Has reports whether r is in the set.
func (s RankSet) Has(r Rank) bool {
	return s&(1<<r) != 0
}

// Len returns the number of distinct ranks.
func (s RankSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Valid reports whether the set only holds ranks 2..14.
func (s RankSet) Valid() bool {
	return s&^validRankBits == 0
}

// Values returns the rank values in ascending order.
func (s RankSet) Values() []int {
	out := make([]int, 0, s.Len())
	for r := Two; r <= Ace; r++ {
		if s.Has(r) {
			out = append(out, int(r))
		}
	}
	return out
}

// LongestRun returns the length of the longest run of consecutive rank
// values. Aces only count high here. An empty set has run 0.
func (s RankSet) LongestRun() int {
	best, cur := 0, 0
	for r := Two; r <= Ace; r++ {
		if s.Has(r) {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

// HasStraight reports whether the set contains five consecutive ranks, with
// the ace also playing low in A-2-3-4-5.
func (s RankSet) HasStraight() bool {
	return s.LongestRun() >= StraightLength || s&wheelRanks == wheelRanks
}

// StraightRanks returns the highest straight present as five ascending ranks,
// or nil when there is none. The wheel is returned as A,2,3,4,5.
func (s RankSet) StraightRanks() []Rank {
	for top := Ace; top >= Six; top-- {
		ok := true
		for r := top - StraightLength + 1; r <= top; r++ {
			if !s.Has(r) {
				ok = false
				break
			}
		}
		if ok {
			out := make([]Rank, 0, StraightLength)
			for r := top - StraightLength + 1; r <= top; r++ {
				out = append(out, r)
			}
			return out
		}
	}
	if s&wheelRanks == wheelRanks {
		return []Rank{Ace, Two, Three, Four, Five}
	}
	return nil
}

package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
)

// State is the abstraction of a hand the learner sees: the longest run of
// consecutive ranks and the set of distinct ranks held. Suits, card order and
// duplicate ranks do not affect straight formation and are dropped.
type State struct {
	Run   int
	Ranks deck.RankSet
}

// Encode maps a hand to its state.
func Encode(h hand.Hand) State {
	ranks := h.Ranks()
	return State{Run: ranks.LongestRun(), Ranks: ranks}
}

// Straight reports whether the state's ranks already contain a straight.
func (s State) Straight() bool {
	return s.Ranks.HasStraight()
}

// String renders the state as "<run>:<rank>,<rank>,...", e.g. "5:7,8,9,10,11".
// The form is canonical: ParseState(s.String()) == s.
func (s State) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.Run))
	b.WriteByte(':')
	for i, v := range s.Ranks.Values() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// minStateRanks is the fewest distinct ranks a hand of hand.Size cards can
// hold: four suits per rank.
const minStateRanks = (hand.Size + 3) / 4

// ParseState is the inverse of State.String. Only canonical keys are accepted:
// ranks must be strictly increasing values in 2..14, between minStateRanks
// and hand.Size of them,
// and the run must equal the longest run of those ranks.
func ParseState(key string) (State, error) {
	runPart, ranksPart, ok := strings.Cut(key, ":")
	if !ok {
		return State{}, fmt.Errorf("state %q: missing ':'", key)
	}
	run, err := strconv.Atoi(runPart)
	if err != nil {
		return State{}, fmt.Errorf("state %q: bad run: %w", key, err)
	}
	if ranksPart == "" {
		return State{}, fmt.Errorf("state %q: no ranks", key)
	}

	var ranks deck.RankSet
	prev := 0
	fields := strings.Split(ranksPart, ",")
	if len(fields) < minStateRanks {
		return State{}, fmt.Errorf("state %q: %d ranks, at least %d required", key, len(fields), minStateRanks)
	}
	if len(fields) > hand.Size {
		return State{}, fmt.Errorf("state %q: %d ranks, at most %d allowed", key, len(fields), hand.Size)
	}
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return State{}, fmt.Errorf("state %q: bad rank %q", key, f)
		}
		r := deck.Rank(v)
		if v < int(deck.Two) || v > int(deck.Ace) {
			return State{}, fmt.Errorf("state %q: rank %d out of range", key, v)
		}
		if v <= prev {
			return State{}, fmt.Errorf("state %q: ranks not strictly increasing", key)
		}
		prev = v
		ranks = ranks.Add(r)
	}

	s := State{Run: run, Ranks: ranks}
	if want := ranks.LongestRun(); run != want {
		return State{}, fmt.Errorf("state %q: run %d does not match ranks (want %d)", key, run, want)
	}
	if s.String() != key {
		return State{}, fmt.Errorf("state %q: not in canonical form", key)
	}
	return s, nil
}

package solver

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/lox/straightq/internal/hand"
)

// ActionCount is the size of the action space:
// C(8,1)+C(8,2)+C(8,3)+C(8,4)+C(8,5).
const ActionCount = 8 + 28 + 56 + 70 + 56

// Action names the hand positions to discard. It is stored as a bit mask over
// the eight positions; the zero Action is not a legal action.
type Action struct {
	mask uint8
}

var (
	actionSpace    []Action
	actionOrdinals [256]int16
)

func init() {
	for i := range actionOrdinals {
		actionOrdinals[i] = -1
	}
	actionSpace = make([]Action, 0, ActionCount)
	for size := 1; size <= hand.MaxDiscard; size++ {
		combinations(hand.Size, size, func(idx []int) {
			a := actionFromIndices(idx)
			actionOrdinals[a.mask] = int16(len(actionSpace))
			actionSpace = append(actionSpace, a)
		})
	}
	if len(actionSpace) != ActionCount {
		panic(fmt.Sprintf("solver: action space has %d members, want %d", len(actionSpace), ActionCount))
	}
}

// combinations calls fn with every strictly increasing k-subset of 0..n-1 in
// lexicographic order. fn must not retain the slice.
func combinations(n, k int, fn func([]int)) {
	idx := make([]int, k)
	var rec func(pos, start int)
	rec = func(pos, start int) {
		if pos == k {
			fn(idx)
			return
		}
		for i := start; i <= n-(k-pos); i++ {
			idx[pos] = i
			rec(pos+1, i+1)
		}
	}
	rec(0, 0)
}

func actionFromIndices(idx []int) Action {
	var m uint8
	for _, i := range idx {
		m |= 1 << uint(i)
	}
	return Action{mask: m}
}

// Actions returns every legal action, ordered by size and then
// lexicographically by position. The slice is shared and must not be
// modified. Greedy selection breaks ties by this order.
func Actions() []Action {
	return actionSpace
}

// NewAction builds an action from hand positions, which may be given in any
// order.
func NewAction(positions ...int) (Action, error) {
	if err := hand.ValidatePositions(positions, hand.Size); err != nil {
		return Action{}, err
	}
	return actionFromIndices(positions), nil
}

// Valid reports whether a is a member of the action space.
func (a Action) Valid() bool {
	return actionOrdinals[a.mask] >= 0
}

// Ordinal returns the action's position in Actions(), or -1 if invalid.
func (a Action) Ordinal() int {
	return int(actionOrdinals[a.mask])
}

// Len returns the number of cards discarded.
func (a Action) Len() int {
	return bits.OnesCount8(a.mask)
}

// Indices returns the discarded positions in increasing order.
func (a Action) Indices() []int {
	out := make([]int, 0, a.Len())
	for i := 0; i < hand.Size; i++ {
		if a.mask&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// String renders the positions as "0,3,4".
func (a Action) String() string {
	parts := make([]string, 0, a.Len())
	for _, i := range a.Indices() {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ",")
}

// ParseAction is the inverse of Action.String and only accepts the canonical,
// strictly increasing form.
func ParseAction(key string) (Action, error) {
	if key == "" {
		return Action{}, fmt.Errorf("action %q: empty", key)
	}
	fields := strings.Split(key, ",")
	positions := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad position %q", key, f)
		}
		if n := len(positions); n > 0 && v <= positions[n-1] {
			return Action{}, fmt.Errorf("action %q: positions not strictly increasing", key)
		}
		positions = append(positions, v)
	}
	a, err := NewAction(positions...)
	if err != nil {
		return Action{}, fmt.Errorf("action %q: %w", key, err)
	}
	if a.String() != key {
		return Action{}, fmt.Errorf("action %q: not in canonical form", key)
	}
	return a, nil
}

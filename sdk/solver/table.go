package solver

import (
	"fmt"
	"sort"
	"sync"
)

// Key addresses one cell of the value table.
type Key struct {
	State  State
	Action Action
}

func (k Key) String() string {
	return k.State.String() + "/" + k.Action.String()
}

// row holds the cells of one state, indexed by action ordinal. Keeping a
// dense row per state makes max-over-actions a linear scan instead of one map
// lookup per action.
type row struct {
	values [ActionCount]float64
	set    [ActionCount]bool
	n      int
}

// ValueTable maps (State, Action) to an estimated value. Cells that were never
// written read as 0.0. It is safe for concurrent use; all writes are
// serialised by a single lock.
type ValueTable struct {
	mu    sync.RWMutex
	rows  map[State]*row
	cells int
}

// NewValueTable returns an empty table.
func NewValueTable() *ValueTable {
	return &ValueTable{rows: make(map[State]*row)}
}

// Get returns the value of a cell, or 0.0 if it has never been written.
func (t *ValueTable) Get(k Key) float64 {
	v, _ := t.Lookup(k)
	return v
}

// Lookup returns the value of a cell and whether it has been written.
func (t *ValueTable) Lookup(k Key) (float64, bool) {
	ord := k.Action.Ordinal()
	if ord < 0 {
		return 0, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[k.State]
	if !ok || !r.set[ord] {
		return 0, false
	}
	return r.values[ord], true
}

// Set writes a cell. Invalid actions are rejected.
func (t *ValueTable) Set(k Key, v float64) error {
	ord := k.Action.Ordinal()
	if ord < 0 {
		return fmt.Errorf("set %s: action is not in the action space", k)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(k.State, ord, v)
	return nil
}

func (t *ValueTable) setLocked(s State, ord int, v float64) {
	r, ok := t.rows[s]
	if !ok {
		r = &row{}
		t.rows[s] = r
	}
	if !r.set[ord] {
		r.set[ord] = true
		r.n++
		t.cells++
	}
	r.values[ord] = v
}

// Best returns the greedy action for s: the first action in Actions() order
// with the highest value, unwritten cells counting as 0.0.
func (t *ValueTable) Best(s State) (Action, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ord, v := t.bestLocked(s)
	return actionSpace[ord], v
}

// MaxValue returns the highest value over all actions of s (0.0 if unseen).
func (t *ValueTable) MaxValue(s State) float64 {
	_, v := t.Best(s)
	return v
}

func (t *ValueTable) bestLocked(s State) (int, float64) {
	r, ok := t.rows[s]
	if !ok {
		return 0, 0
	}
	best, bestV := 0, r.values[0]
	for i := 1; i < ActionCount; i++ {
		if r.values[i] > bestV {
			best, bestV = i, r.values[i]
		}
	}
	return best, bestV
}

// Update performs an atomic read-modify-write of cell k. fn receives the
// current value of k and the best value of next, both read under the same
// lock, and returns the new value for k, which Update also returns.
func (t *ValueTable) Update(k Key, next State, fn func(current, bestNext float64) float64) (float64, error) {
	ord := k.Action.Ordinal()
	if ord < 0 {
		return 0, fmt.Errorf("update %s: action is not in the action space", k)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	current := 0.0
	if r, ok := t.rows[k.State]; ok {
		current = r.values[ord]
	}
	_, bestNext := t.bestLocked(next)
	v := fn(current, bestNext)
	t.setLocked(k.State, ord, v)
	return v, nil
}

// Len returns the number of written cells.
func (t *ValueTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cells
}

// States returns the number of states with at least one written cell.
func (t *ValueTable) States() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Range calls fn for every written cell, ordered by state (run, then ranks)
// and then by action ordinal. Iteration stops if fn returns false. fn must
// not modify the table.
func (t *ValueTable) Range(fn func(k Key, v float64) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	states := make([]State, 0, len(t.rows))
	for s := range t.rows {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Run != states[j].Run {
			return states[i].Run < states[j].Run
		}
		return states[i].Ranks < states[j].Ranks
	})

	for _, s := range states {
		r := t.rows[s]
		for ord := 0; ord < ActionCount; ord++ {
			if !r.set[ord] {
				continue
			}
			if !fn(Key{State: s, Action: actionSpace[ord]}, r.values[ord]) {
				return
			}
		}
	}
}

// Snapshot returns a copy of every written cell.
func (t *ValueTable) Snapshot() map[Key]float64 {
	out := make(map[Key]float64, t.Len())
	t.Range(func(k Key, v float64) bool {
		out[k] = v
		return true
	})
	return out
}

// Clone returns an independent copy of the table.
func (t *ValueTable) Clone() *ValueTable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := &ValueTable{rows: make(map[State]*row, len(t.rows)), cells: t.cells}
	for s, r := range t.rows {
		cp := *r
		out.rows[s] = &cp
	}
	return out
}

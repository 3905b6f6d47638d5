package runtime

import (
	"errors"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/sdk/solver"
)

// Policy exposes read-only greedy access to a learned value table for
// advising live hands.
type Policy struct {
	table *solver.ValueTable
	meta  solver.TableMeta
}

// Load constructs a runtime policy from a stored table file.
func Load(path string) (*Policy, error) {
	table, meta, err := solver.LoadTable(path)
	if err != nil {
		return nil, err
	}
	return New(table, meta), nil
}

// New wraps an in-memory table. The table must not be trained further while
// the policy is in use.
func New(table *solver.ValueTable, meta solver.TableMeta) *Policy {
	return &Policy{table: table, meta: meta}
}

// Meta returns the metadata of the underlying table.
func (p *Policy) Meta() solver.TableMeta {
	if p == nil {
		return solver.TableMeta{}
	}
	return p.meta
}

// Table returns the underlying table (read-only).
func (p *Policy) Table() *solver.ValueTable {
	if p == nil {
		return nil
	}
	return p.table
}

// Advice is the greedy recommendation for one hand.
type Advice struct {
	State solver.State
	// Straight is true when the hand already holds a straight; no discard is
	// recommended then.
	Straight bool
	Action   solver.Action
	// Positions and Discard are the hand positions and cards to throw away.
	Positions []int
	Discard   []deck.Card
	Value     float64
	// Known reports whether the table has any learned value for the state.
	Known bool
}

// Advise returns the greedy discard for h.
func (p *Policy) Advise(h hand.Hand) (Advice, error) {
	if p == nil || p.table == nil {
		return Advice{}, errors.New("nil policy")
	}
	if len(h) != hand.Size {
		return Advice{}, errors.New("hand must hold 8 cards")
	}

	state := solver.Encode(h)
	if hand.HasStraight(h) {
		return Advice{State: state, Straight: true}, nil
	}

	action, value := p.table.Best(state)
	_, known := p.table.Lookup(solver.Key{State: state, Action: action})
	if !known {
		// The best action may be an unwritten cell tied at 0.0; the state
		// counts as known if any cell was learned.
		for _, a := range solver.Actions() {
			if _, ok := p.table.Lookup(solver.Key{State: state, Action: a}); ok {
				known = true
				break
			}
		}
	}

	positions := action.Indices()
	discard := make([]deck.Card, len(positions))
	for i, pos := range positions {
		discard[i] = h[pos]
	}
	return Advice{
		State:     state,
		Action:    action,
		Positions: positions,
		Discard:   discard,
		Value:     value,
		Known:     known,
	}, nil
}

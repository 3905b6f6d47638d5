package solver

import (
	rand "math/rand/v2"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
)

// DiscardOpportunities is the number of discard rounds in an episode.
const DiscardOpportunities = 3

// Episode is one hand played from the deal through at most
// DiscardOpportunities discard rounds.
type Episode struct {
	Initial     hand.Hand
	Final       hand.Hand
	Transitions []Transition
	Won         bool
	// WinRound is the number of discards made before the straight appeared
	// (0 when it was dealt), or -1 for a loss.
	WinRound int
}

// Discarded returns the total number of cards replaced in the episode.
func (e Episode) Discarded() int {
	n := 0
	for _, tr := range e.Transitions {
		n += len(tr.Discarded)
	}
	return n
}

// PlayConfig controls how an episode chooses and learns.
type PlayConfig struct {
	Epsilon float64
	// Learner, when non-nil, updates the table after every transition.
	Learner *Learner
}

// PlayEpisode deals a fresh hand from a newly shuffled deck and plays it out.
func PlayEpisode(table *ValueTable, cfg PlayConfig, rng *rand.Rand) (Episode, error) {
	d := deck.NewDeck(rng)
	h, err := hand.Deal(d)
	if err != nil {
		return Episode{}, err
	}
	return PlayFrom(table, h, d, cfg, rng)
}

// PlayFrom plays an episode starting from h, drawing replacements from src.
// A hand that already holds a straight at the start of a round is terminal:
// no action is taken and nothing is learned for that round. The action that
// completed a straight is credited through its own transition's reward.
func PlayFrom(table *ValueTable, h hand.Hand, src hand.Source, cfg PlayConfig, rng *rand.Rand) (Episode, error) {
	ep := Episode{Initial: h.Clone(), WinRound: -1}
	for round := 0; round < DiscardOpportunities; round++ {
		if hand.HasStraight(h) {
			ep.Won, ep.WinRound = true, round
			break
		}

		state := Encode(h)
		action := SelectAction(table, state, cfg.Epsilon, rng)
		next, discarded, drawn, err := hand.ApplyDiscard(h, action.Indices(), src)
		if err != nil {
			ep.Final = h
			return ep, err
		}

		tr := Transition{
			State:     state,
			Action:    action,
			Reward:    Reward(h, next),
			Next:      Encode(next),
			Discarded: discarded,
			Drawn:     drawn,
		}
		if cfg.Learner != nil {
			tdErr, err := cfg.Learner.Update(table, tr)
			if err != nil {
				ep.Final = h
				return ep, err
			}
			tr.TDError = tdErr
		}
		ep.Transitions = append(ep.Transitions, tr)
		h = next

		if tr.Reward == RewardStraight {
			ep.Won, ep.WinRound = true, round+1
			break
		}
	}
	ep.Final = h
	return ep, nil
}

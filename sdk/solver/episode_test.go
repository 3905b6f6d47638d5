package solver

import (
	"errors"
	"testing"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/randutil"
)

// scriptedSource deals a fixed sequence of cards.
type scriptedSource struct {
	cards []deck.Card
}

func newScriptedSource(t *testing.T, s string) *scriptedSource {
	t.Helper()
	cards, err := deck.ParseCards(s)
	if err != nil {
		t.Fatalf("parse cards %q: %v", s, err)
	}
	return &scriptedSource{cards: cards}
}

func (s *scriptedSource) Deal(n int) ([]deck.Card, error) {
	if n > len(s.cards) {
		return nil, &deck.DeckExhaustedError{Requested: n, Remaining: len(s.cards)}
	}
	out := s.cards[:n]
	s.cards = s.cards[n:]
	return out, nil
}

func TestPlayFromDealtStraightIsTerminal(t *testing.T) {
	table := NewValueTable()
	learner := Learner{LearningRate: 0.1, DiscountFactor: 0.99}
	h := mustHand(t, "9h Th Jh Qh Kh 2d 3d 4d")

	ep, err := PlayFrom(table, h, newScriptedSource(t, ""), PlayConfig{Learner: &learner}, randutil.New(1))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !ep.Won || ep.WinRound != 0 {
		t.Fatalf("won=%v round=%d, want dealt straight", ep.Won, ep.WinRound)
	}
	if len(ep.Transitions) != 0 || table.Len() != 0 {
		t.Fatalf("dealt straight produced %d transitions and %d cells", len(ep.Transitions), table.Len())
	}
}

func TestPlayFromCompletesStraight(t *testing.T) {
	table := NewValueTable()
	learner := Learner{LearningRate: 0.1, DiscountFactor: 0.99}
	h := mustHand(t, "2c 9h Th Jh Qh 3d 4s 6c")

	// The greedy action on an empty table discards position 0.
	ep, err := PlayFrom(table, h, newScriptedSource(t, "Kd"), PlayConfig{Learner: &learner}, randutil.New(1))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !ep.Won || ep.WinRound != 1 {
		t.Fatalf("won=%v round=%d, want straight after one discard", ep.Won, ep.WinRound)
	}
	if got := ep.Final.String(); got != "9h Th Jh Qh 3d 4s 6c Kd" {
		t.Fatalf("final hand = %q", got)
	}
	if len(ep.Transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(ep.Transitions))
	}
	tr := ep.Transitions[0]
	if tr.Action.String() != "0" || tr.Reward != RewardStraight {
		t.Fatalf("transition = %s reward %v", tr.Action, tr.Reward)
	}
	if got := table.Get(Key{State: tr.State, Action: tr.Action}); got != 1.0 {
		t.Fatalf("value = %v, want 1.0", got)
	}
	if ep.Discarded() != 1 || h.String() != "2c 9h Th Jh Qh 3d 4s 6c" {
		t.Fatalf("episode modified the starting hand or miscounted discards")
	}
}

func TestPlayFromStopsAfterThreeDiscards(t *testing.T) {
	table := NewValueTable()
	h := mustHand(t, "2c 4d 6h 8s Tc Qd Ah 3s")

	ep, err := PlayFrom(table, h, newScriptedSource(t, "2d 2h 2s"), PlayConfig{}, randutil.New(1))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if ep.Won || ep.WinRound != -1 {
		t.Fatalf("won=%v round=%d, want loss", ep.Won, ep.WinRound)
	}
	if len(ep.Transitions) != DiscardOpportunities {
		t.Fatalf("transitions = %d, want %d", len(ep.Transitions), DiscardOpportunities)
	}
	if table.Len() != 0 {
		t.Fatalf("evaluation play wrote %d cells", table.Len())
	}
}

func TestPlayFromPropagatesDeckExhaustion(t *testing.T) {
	table := NewValueTable()
	h := mustHand(t, "2c 4d 6h 8s Tc Qd Ah 3s")

	_, err := PlayFrom(table, h, newScriptedSource(t, "2d"), PlayConfig{}, randutil.New(1))
	var exhausted *deck.DeckExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected DeckExhaustedError, got %v", err)
	}
}

func TestPlayEpisodeKeepsHandSize(t *testing.T) {
	table := NewValueTable()
	learner := Learner{LearningRate: 0.1, DiscountFactor: 0.99}
	for i := 0; i < 200; i++ {
		ep, err := PlayEpisode(table, PlayConfig{Epsilon: 0.5, Learner: &learner}, randutil.New(int64(i+1)))
		if err != nil {
			t.Fatalf("episode %d: %v", i, err)
		}
		if len(ep.Final) != 8 || len(ep.Initial) != 8 {
			t.Fatalf("episode %d: hand sizes %d/%d", i, len(ep.Initial), len(ep.Final))
		}
		if len(ep.Transitions) > DiscardOpportunities {
			t.Fatalf("episode %d: %d transitions", i, len(ep.Transitions))
		}
		for _, tr := range ep.Transitions {
			if tr.State.Straight() {
				t.Fatalf("episode %d: acted on a straight state %s", i, tr.State)
			}
		}
	}
}

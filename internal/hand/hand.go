// Package hand implements the discard-and-redraw environment: an eight-card
// hand, the straight predicates over it, and the transition that replaces the
// cards at a set of positions with fresh cards from a draw source.
package hand

import (
	"fmt"
	"sort"

	"github.com/lox/straightq/internal/deck"
)

const (
	// Size is the number of cards held at all times.
	Size = 8
	// MaxDiscard is the largest number of cards that may be replaced at once.
	MaxDiscard = 5
)

// Source supplies replacement cards. *deck.Deck satisfies it.
type Source interface {
	Deal(n int) ([]deck.Card, error)
}

// Hand is an ordered set of cards. Positions matter: discards name positions,
// not cards.
type Hand []deck.Card

// Deal draws a fresh hand of Size cards.
func Deal(src Source) (Hand, error) {
	cards, err := src.Deal(Size)
	if err != nil {
		return nil, err
	}
	return Hand(cards), nil
}

// Parse reads a hand from card text such as "9h Th Jh Qh Kh 2d 3d 4d". The
// hand must hold exactly Size distinct cards.
func Parse(s string) (Hand, error) {
	cards, err := deck.ParseCards(s)
	if err != nil {
		return nil, err
	}
	if len(cards) != Size {
		return nil, fmt.Errorf("hand must have %d cards, got %d", Size, len(cards))
	}
	seen := make(map[deck.Card]bool, Size)
	for _, c := range cards {
		if seen[c] {
			return nil, fmt.Errorf("duplicate card %s in hand", c)
		}
		seen[c] = true
	}
	return Hand(cards), nil
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	return append(Hand(nil), h...)
}

// Ranks returns the distinct ranks held.
func (h Hand) Ranks() deck.RankSet {
	return deck.RankSetOf(h)
}

func (h Hand) String() string {
	return deck.FormatCards(h)
}

// HasStraight reports whether the hand contains five cards of consecutive
// rank, counting A-2-3-4-5.
func HasStraight(h Hand) bool {
	return h.Ranks().HasStraight()
}

// LongestRun is the length of the longest run of consecutive distinct ranks in
// the hand.
func LongestRun(h Hand) int {
	return h.Ranks().LongestRun()
}

// InvalidActionError reports a discard that cannot be applied to the hand.
type InvalidActionError struct {
	Positions []int
	Reason    string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid discard %v: %s", e.Positions, e.Reason)
}

// ValidatePositions checks that positions name between 1 and MaxDiscard
// distinct cards of a hand of length n.
func ValidatePositions(positions []int, n int) error {
	if len(positions) == 0 {
		return &InvalidActionError{Positions: positions, Reason: "no positions"}
	}
	if len(positions) > MaxDiscard {
		return &InvalidActionError{Positions: positions, Reason: fmt.Sprintf("more than %d positions", MaxDiscard)}
	}
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= n {
			return &InvalidActionError{Positions: positions, Reason: fmt.Sprintf("position %d out of range", p)}
		}
		if seen[p] {
			return &InvalidActionError{Positions: positions, Reason: fmt.Sprintf("position %d repeated", p)}
		}
		seen[p] = true
	}
	return nil
}

// ApplyDiscard removes the cards at positions and appends the same number of
// cards dealt from src. It returns the resulting hand together with the
// discarded and drawn cards. The input hand is not modified, and on error no
// cards are consumed from the hand.
func ApplyDiscard(h Hand, positions []int, src Source) (next Hand, discarded, drawn []deck.Card, err error) {
	if err := ValidatePositions(positions, len(h)); err != nil {
		return nil, nil, nil, err
	}

	drawn, err = src.Deal(len(positions))
	if err != nil {
		return nil, nil, nil, err
	}

	order := append([]int(nil), positions...)
	sort.Ints(order)
	discarded = make([]deck.Card, len(order))
	for i, idx := range order {
		discarded[i] = h[idx]
	}

	// Remove from the back so earlier positions stay valid.
	next = h.Clone()
	for i := len(order) - 1; i >= 0; i-- {
		idx := order[i]
		next = append(next[:idx], next[idx+1:]...)
	}
	next = append(next, drawn...)
	return next, discarded, drawn, nil
}

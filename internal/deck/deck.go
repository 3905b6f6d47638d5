package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// Size is the number of cards in a standard deck.
const Size = 52

// DeckExhaustedError is returned when a deal asks for more cards than remain.
type DeckExhaustedError struct {
	Requested int
	Remaining int
}

func (e *DeckExhaustedError) Error() string {
	return fmt.Sprintf("deck exhausted: requested %d cards, %d remaining", e.Requested, e.Remaining)
}

// Deck represents a standard 52-card deck dealt from the top.
type Deck struct {
	cards [Size]Card // Fixed size array
	next  int
	rng   *rand.Rand // Random source for deterministic shuffling
}

// NewDeck creates a new shuffled deck with explicit RNG
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}

	i := 0
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}

	d.Shuffle()
	return d
}

// Shuffle returns every card to the deck and shuffles it using Fisher-Yates.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes n cards from the top of the deck. It never returns a short
// hand: if fewer than n cards remain the deck is left untouched and a
// *DeckExhaustedError is returned.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deal: negative count %d", n)
	}
	if remaining := d.CardsRemaining(); n > remaining {
		return nil, &DeckExhaustedError{Requested: n, Remaining: remaining}
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}

// Remove takes the given cards out of the undealt portion of the deck, as if
// they had already been dealt. It is used to continue play from a known hand.
func (d *Deck) Remove(cards ...Card) error {
	for _, c := range cards {
		found := false
		for i := d.next; i < len(d.cards); i++ {
			if d.cards[i] == c {
				d.cards[d.next], d.cards[i] = d.cards[i], d.cards[d.next]
				d.next++
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("card %s is not in the deck", c)
		}
	}
	return nil
}

// Package display renders greedy walkthroughs of a learned policy for the
// terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/paulhankin/poker"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/sdk/solver"
)

// Styles contains styling for walkthrough output.
type Styles struct {
	Header    lipgloss.Style
	SubHeader lipgloss.Style
	Action    lipgloss.Style
	Winner    lipgloss.Style
	Loser     lipgloss.Style
	CardRed   lipgloss.Style
	CardBlack lipgloss.Style
	Discarded lipgloss.Style
	Muted     lipgloss.Style
}

// NewStyles creates the walkthrough styles bound to r.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		SubHeader: r.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Action: r.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Loser: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		CardRed: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlack: r.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")).
			Bold(true),
		Discarded: r.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Strikethrough(true),
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// Printer writes walkthroughs to an output stream.
type Printer struct {
	w      io.Writer
	styles *Styles
}

// NewPrinter returns a printer for w. With color disabled, output is plain
// ASCII regardless of the terminal.
func NewPrinter(w io.Writer, color bool) *Printer {
	var r *lipgloss.Renderer
	if color {
		r = lipgloss.NewRenderer(w)
	} else {
		r = lipgloss.NewRenderer(w, termenv.WithProfile(termenv.Ascii))
	}
	return &Printer{w: w, styles: NewStyles(r)}
}

// Walkthrough prints every round of ep: the hand, the state the learner saw,
// the chosen discard and its learned value, and the cards drawn.
func (p *Printer) Walkthrough(ep solver.Episode, table *solver.ValueTable) error {
	var b strings.Builder
	s := p.styles

	b.WriteString(s.Header.Render("GREEDY WALKTHROUGH"))
	b.WriteString("\n\n")

	h := ep.Initial
	fmt.Fprintf(&b, "Dealt:  %s\n", p.formatCards(h))
	for i, tr := range ep.Transitions {
		b.WriteString("\n")
		b.WriteString(s.SubHeader.Render(fmt.Sprintf("*** DISCARD %d ***", i+1)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s\n", s.Muted.Render(fmt.Sprintf("state %s", tr.State)))

		value := table.Get(solver.Key{State: tr.State, Action: tr.Action})
		fmt.Fprintf(&b, "Discard %s %s\n",
			p.formatDiscard(h, tr.Action),
			s.Action.Render(fmt.Sprintf("[%s] Q=%.4f", tr.Action, value)))
		fmt.Fprintf(&b, "Draw:   %s\n", p.formatCards(tr.Drawn))

		next, _, _, err := hand.ApplyDiscard(h, tr.Action.Indices(), &replay{cards: tr.Drawn})
		if err != nil {
			return fmt.Errorf("replay round %d: %w", i+1, err)
		}
		h = next
		fmt.Fprintf(&b, "Hand:   %s %s\n", p.formatCards(h), s.Muted.Render(fmt.Sprintf("(run %d, reward %+g)", hand.LongestRun(h), tr.Reward)))
	}

	b.WriteString("\n")
	if ep.Won {
		desc, err := DescribeStraight(ep.Final)
		if err != nil {
			return err
		}
		b.WriteString(s.Winner.Render(fmt.Sprintf("Straight after %d discard(s): %s", ep.WinRound, desc)))
	} else {
		b.WriteString(s.Loser.Render(fmt.Sprintf("No straight (longest run %d)", hand.LongestRun(ep.Final))))
	}
	b.WriteString("\n")

	_, err := io.WriteString(p.w, b.String())
	return err
}

// Summary prints the headline numbers of an evaluation.
func (p *Printer) Summary(res solver.EvalResult) error {
	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("EVALUATION"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Games:     %d\n", res.Stats.Games)
	fmt.Fprintf(&b, "Win rate:  %s\n", s.Winner.Render(fmt.Sprintf("%.4f", res.WinRate)))
	fmt.Fprintf(&b, "95%% CI:    [%.4f, %.4f]\n", res.Low, res.High)
	for r, n := range res.Stats.WinsByRound {
		fmt.Fprintf(&b, "%s\n", s.Muted.Render(fmt.Sprintf("  won after %d discard(s): %d", r, n)))
	}
	fmt.Fprintf(&b, "Avg cards discarded: %.2f\n", res.Stats.AvgDiscarded())
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = p.formatCard(c)
	}
	return strings.Join(parts, " ")
}

func (p *Printer) formatCard(c deck.Card) string {
	if c.Suit.IsRed() {
		return p.styles.CardRed.Render(c.String())
	}
	return p.styles.CardBlack.Render(c.String())
}

func (p *Printer) formatDiscard(h hand.Hand, a solver.Action) string {
	parts := make([]string, 0, a.Len())
	for _, i := range a.Indices() {
		parts = append(parts, p.styles.Discarded.Render(h[i].String()))
	}
	return strings.Join(parts, " ")
}

// replay re-deals the cards recorded in a transition.
type replay struct {
	cards []deck.Card
}

func (r *replay) Deal(n int) ([]deck.Card, error) {
	if n > len(r.cards) {
		return nil, &deck.DeckExhaustedError{Requested: n, Remaining: len(r.cards)}
	}
	out := r.cards[:n]
	r.cards = r.cards[n:]
	return out, nil
}

// DescribeStraight names the highest straight in h, e.g. "straight, king
// high". It fails if h holds no straight.
func DescribeStraight(h hand.Hand) (string, error) {
	ranks := h.Ranks().StraightRanks()
	if ranks == nil {
		return "", fmt.Errorf("hand %s holds no straight", h)
	}

	cards := make([]poker.Card, 0, len(ranks))
	for _, r := range ranks {
		for _, c := range h {
			if c.Rank != r {
				continue
			}
			pc, err := toPoker(c)
			if err != nil {
				return "", err
			}
			cards = append(cards, pc)
			break
		}
	}
	return poker.Describe(cards)
}

func toPoker(c deck.Card) (poker.Card, error) {
	var s poker.Suit
	switch c.Suit {
	case deck.Clubs:
		s = poker.Club
	case deck.Diamonds:
		s = poker.Diamond
	case deck.Hearts:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// poker ranks run 1..13 with the ace low.
	r := poker.Rank(c.Rank)
	if c.Rank == deck.Ace {
		r = poker.Rank(1)
	}
	return poker.MakeCard(s, r)
}

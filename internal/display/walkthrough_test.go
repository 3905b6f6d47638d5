package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/internal/randutil"
	"github.com/lox/straightq/internal/statistics"
	"github.com/lox/straightq/sdk/solver"
)

type scripted struct {
	cards []deck.Card
}

func (s *scripted) Deal(n int) ([]deck.Card, error) {
	if n > len(s.cards) {
		return nil, &deck.DeckExhaustedError{Requested: n, Remaining: len(s.cards)}
	}
	out := s.cards[:n]
	s.cards = s.cards[n:]
	return out, nil
}

func TestWalkthroughPlain(t *testing.T) {
	h, err := hand.Parse("2c 9h Th Jh Qh 3d 4s 6c")
	require.NoError(t, err)
	drawn, err := deck.ParseCards("Kd")
	require.NoError(t, err)

	table := solver.NewValueTable()
	ep, err := solver.PlayFrom(table, h, &scripted{cards: drawn}, solver.PlayConfig{}, randutil.New(1))
	require.NoError(t, err)
	require.True(t, ep.Won)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Walkthrough(ep, table))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "plain output must not contain escape codes")
	assert.Contains(t, out, "GREEDY WALKTHROUGH")
	assert.Contains(t, out, "Dealt:  2c 9h Th Jh Qh 3d 4s 6c")
	assert.Contains(t, out, "*** DISCARD 1 ***")
	assert.Contains(t, out, "state 4:2,3,4,6,9,10,11,12")
	assert.Contains(t, out, "Discard 2c [0] Q=0.0000")
	assert.Contains(t, out, "Hand:   9h Th Jh Qh 3d 4s 6c Kd")
	assert.Contains(t, out, "Straight after 1 discard(s)")
}

func TestWalkthroughLoss(t *testing.T) {
	h, err := hand.Parse("2c 4d 6h 8s Tc Qd Ah 3s")
	require.NoError(t, err)
	drawn, err := deck.ParseCards("2d 2h 2s")
	require.NoError(t, err)

	table := solver.NewValueTable()
	ep, err := solver.PlayFrom(table, h, &scripted{cards: drawn}, solver.PlayConfig{}, randutil.New(1))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Walkthrough(ep, table))
	out := buf.String()
	assert.Contains(t, out, "*** DISCARD 3 ***")
	assert.Contains(t, out, "No straight")
}

func TestDescribeStraight(t *testing.T) {
	for _, s := range []string{
		"9h Th Jh Qh Kh 2d 3d 4d",
		"Ah 2d 3c 4s 5h 9c 9d Kc",
		"Ts Jd Qc Kh Ad 2c 3c 7h",
	} {
		h, err := hand.Parse(s)
		require.NoError(t, err)
		desc, err := DescribeStraight(h)
		require.NoError(t, err, s)
		assert.Contains(t, strings.ToLower(desc), "straight", s)
	}

	h, err := hand.Parse("2c 4d 6h 8s Tc Qd Ah 3s")
	require.NoError(t, err)
	_, err = DescribeStraight(h)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	var stats statistics.Statistics
	stats.Add(statistics.GameResult{Won: true, Round: 2, Discarded: 6})
	stats.Add(statistics.GameResult{Won: false, Discarded: 9})
	lo, hi := stats.ConfidenceInterval95()

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Summary(solver.EvalResult{Stats: stats, WinRate: stats.Mean(), Low: lo, High: hi}))
	out := buf.String()
	assert.Contains(t, out, "Games:     2")
	assert.Contains(t, out, "Win rate:  0.5000")
	assert.Contains(t, out, "won after 2 discard(s): 1")
	assert.Contains(t, out, "Avg cards discarded: 7.50")
}

package solver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/straightq/internal/randutil"
	"github.com/lox/straightq/internal/statistics"
)

// EvalResult summarises a greedy evaluation run.
type EvalResult struct {
	Stats   statistics.Statistics
	WinRate float64
	// Low and High bound the 95% Wilson interval of WinRate.
	Low  float64
	High float64
}

// Evaluate plays games greedy games against table and returns the fraction
// that ended in a straight. The table is only read, and the result is a pure
// function of table, games and seed (zero included).
func Evaluate(table *ValueTable, games int, seed int64) (float64, error) {
	cfg := DefaultEvalConfig()
	cfg.Games, cfg.Seed = games, seed
	res, err := EvaluateDetailed(context.Background(), table, cfg)
	if err != nil {
		return 0, err
	}
	return res.WinRate, nil
}

// EvaluateDetailed plays cfg.Games greedy games. Game i is dealt from the
// generator derived from (cfg.Seed, i), so the result is independent of the
// number of workers.
func EvaluateDetailed(ctx context.Context, table *ValueTable, cfg EvalConfig) (EvalResult, error) {
	if err := cfg.Validate(); err != nil {
		return EvalResult{}, err
	}
	seed := cfg.Seed
	workers := min(cfg.Workers, cfg.Games)

	partial := make([]statistics.Statistics, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < cfg.Games; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := randutil.New(randutil.Derive(seed, uint64(i)))
				ep, err := PlayEpisode(table, PlayConfig{}, rng)
				if err != nil {
					return fmt.Errorf("game %d: %w", i, err)
				}
				partial[w].Add(statistics.GameResult{
					Won:       ep.Won,
					Round:     ep.WinRound,
					Discarded: ep.Discarded(),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvalResult{}, err
	}

	var res EvalResult
	for _, p := range partial {
		res.Stats.Merge(p)
	}
	res.WinRate = res.Stats.Mean()
	res.Low, res.High = res.Stats.ConfidenceInterval95()
	return res, nil
}

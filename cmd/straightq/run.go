package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/display"
	"github.com/lox/straightq/sdk/solver"
)

// RunCmd is the end-to-end flow: reuse the stored table when there is one,
// otherwise train and store it, then evaluate and show one greedy game.
type RunCmd struct {
	Retrain bool  `help:"train a new table even when one is stored"`
	Seed    int64 `help:"seed for the example game (0 => time-based)" default:"0"`
	NoColor bool  `help:"disable colored output"`
}

func (cmd *RunCmd) Run(ctx context.Context, cfg *config.Config) error {
	ts, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	exists, err := ts.Exists(ctx)
	if err != nil {
		return err
	}

	var table *solver.ValueTable
	if exists && !cmd.Retrain {
		var meta solver.TableMeta
		table, meta, err = ts.Load(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Str("store", fmt.Sprint(ts)).
			Str("run_id", meta.RunID).
			Int("episodes", meta.Episodes).
			Int("cells", table.Len()).
			Msg("using stored value table")
	} else {
		trainer, err := solver.NewTrainer(cfg.Training)
		if err != nil {
			return err
		}
		if cfg.Checkpoint.Path != "" && cfg.Checkpoint.Every > 0 {
			trainer.EnableCheckpoints(cfg.Checkpoint.Path, cfg.Checkpoint.Every)
		}
		log.Info().
			Str("run_id", trainer.RunID()).
			Int("episodes", cfg.Training.Episodes).
			Msg("no stored table; training")
		if err := train(ctx, trainer, cfg, nil, 0, 0); err != nil {
			return err
		}
		if err := ts.Save(ctx, trainer.Table(), trainer.Meta()); err != nil {
			return err
		}
		log.Info().Str("store", fmt.Sprint(ts)).Msg("value table saved")
		table = trainer.Table()
	}

	printer := display.NewPrinter(os.Stdout, !cmd.NoColor)
	if err := evaluate(ctx, table, cfg.Evaluation, printer); err != nil {
		return err
	}
	os.Stdout.WriteString("\n")
	return showGame(table, "", cmd.Seed, printer)
}

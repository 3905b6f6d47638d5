package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/display"
	"github.com/lox/straightq/sdk/solver"
)

type EvalCmd struct {
	Games   int   `help:"number of greedy games (0 keeps config value)" default:"0"`
	Seed    int64 `help:"random seed (0 keeps config value)" default:"0"`
	Workers int   `help:"goroutines playing games (0 keeps config value)" default:"0"`
	NoColor bool  `help:"disable colored output"`
}

func (cmd *EvalCmd) evalConfig(base solver.EvalConfig) solver.EvalConfig {
	eval := base
	if cmd.Games > 0 {
		eval.Games = cmd.Games
	}
	if cmd.Seed != 0 {
		eval.Seed = cmd.Seed
	}
	if cmd.Workers > 0 {
		eval.Workers = cmd.Workers
	}
	return eval
}

func (cmd *EvalCmd) Run(ctx context.Context, cfg *config.Config) error {
	table, _, err := loadTable(ctx, cfg)
	if err != nil {
		return err
	}
	return evaluate(ctx, table, cmd.evalConfig(cfg.Evaluation), display.NewPrinter(os.Stdout, !cmd.NoColor))
}

func evaluate(ctx context.Context, table *solver.ValueTable, eval solver.EvalConfig, printer *display.Printer) error {
	log.Info().
		Int("games", eval.Games).
		Int64("seed", eval.Seed).
		Int("workers", eval.Workers).
		Msg("evaluating greedy policy")

	res, err := solver.EvaluateDetailed(ctx, table, eval)
	if err != nil {
		return err
	}
	log.Info().
		Float64("win_rate", res.WinRate).
		Float64("low", res.Low).
		Float64("high", res.High).
		Msg("evaluation completed")
	return printer.Summary(res)
}

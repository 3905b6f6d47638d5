package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/chart"
	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/sdk/solver"
)

type TrainCmd struct {
	Episodes        int     `help:"number of training episodes (0 keeps config value)" default:"0"`
	LearningRate    float64 `help:"learning rate alpha (negative keeps config value)" default:"-1"`
	DiscountFactor  float64 `help:"discount factor gamma (negative keeps config value)" default:"-1"`
	Epsilon         float64 `help:"exploration rate (negative keeps config value)" default:"-1"`
	Seed            int64   `help:"random seed (0 keeps config value)" default:"0"`
	Workers         int     `help:"goroutines playing episodes (0 keeps config value)" default:"0"`
	ProgressEvery   int     `help:"log progress every N episodes (0 => episodes/100)" default:"0"`
	CheckpointPath  string  `help:"path to write periodic checkpoints"`
	CheckpointEvery int     `help:"checkpoint interval in episodes (0 disables)" default:"0"`
	ResumeFrom      string  `help:"resume training from checkpoint file"`
	Out             string  `help:"write the table to this JSON file instead of the configured store"`
	Chart           string  `help:"write an HTML learning curve to this path"`
	ChartEvery      int     `help:"episodes between learning-curve evaluations" default:"50000"`
	ChartGames      int     `help:"greedy games per learning-curve evaluation" default:"2000"`
	CPUProfile      string  `help:"write CPU profile to file"`
}

func (cmd *TrainCmd) trainingConfig(base solver.TrainingConfig) solver.TrainingConfig {
	train := base
	if cmd.Episodes > 0 {
		train.Episodes = cmd.Episodes
	}
	if cmd.LearningRate >= 0 {
		train.LearningRate = cmd.LearningRate
	}
	if cmd.DiscountFactor >= 0 {
		train.DiscountFactor = cmd.DiscountFactor
	}
	if cmd.Epsilon >= 0 {
		train.Epsilon = cmd.Epsilon
	}
	if cmd.Seed != 0 {
		train.Seed = cmd.Seed
	}
	if cmd.Workers > 0 {
		train.Workers = cmd.Workers
	}
	if cmd.ProgressEvery > 0 {
		train.ProgressEvery = cmd.ProgressEvery
	}
	return train
}

func (cmd *TrainCmd) Run(ctx context.Context, cfg *config.Config) error {
	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cmd.CPUProfile).Msg("CPU profiling enabled")
	}

	trainer, err := cmd.newTrainer(cfg)
	if err != nil {
		return err
	}

	var curve *chart.Curve
	if cmd.Chart != "" {
		if cmd.ChartEvery <= 0 || cmd.ChartGames <= 0 {
			return fmt.Errorf("chart-every and chart-games must be positive")
		}
		curve = chart.NewCurve("straightq learning curve")
		if trainer.TrainingConfig().ProgressEvery == 0 || trainer.TrainingConfig().ProgressEvery > cmd.ChartEvery {
			trainer.SetProgressEvery(cmd.ChartEvery)
		}
	}

	if err := train(ctx, trainer, cfg, curve, cmd.ChartEvery, cmd.ChartGames); err != nil {
		return err
	}

	if curve != nil && len(curve.Points()) > 0 {
		if err := curve.Save(cmd.Chart); err != nil {
			return fmt.Errorf("save chart: %w", err)
		}
		log.Info().Str("path", cmd.Chart).Int("points", len(curve.Points())).Msg("learning curve saved")
	}

	if cmd.Out != "" {
		if err := solver.SaveTable(cmd.Out, trainer.Table(), trainer.Meta()); err != nil {
			return fmt.Errorf("save table: %w", err)
		}
		log.Info().Str("path", cmd.Out).Msg("value table saved")
		return nil
	}
	return saveTable(ctx, cfg, trainer)
}

func (cmd *TrainCmd) newTrainer(cfg *config.Config) (*solver.Trainer, error) {
	checkpointPath, checkpointEvery := cfg.Checkpoint.Path, cfg.Checkpoint.Every
	if cmd.CheckpointPath != "" {
		checkpointPath = cmd.CheckpointPath
	}
	if cmd.CheckpointEvery > 0 {
		checkpointEvery = cmd.CheckpointEvery
	}

	var (
		trainer *solver.Trainer
		err     error
	)
	if cmd.ResumeFrom != "" {
		trainer, err = solver.LoadTrainerFromCheckpoint(cmd.ResumeFrom)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if cmd.Episodes > 0 {
			if err := trainer.SetTotalEpisodes(cmd.Episodes); err != nil {
				return nil, err
			}
		}
		if cmd.Workers > 0 {
			if err := trainer.SetWorkers(cmd.Workers); err != nil {
				return nil, err
			}
		}
		if cmd.ProgressEvery > 0 {
			trainer.SetProgressEvery(cmd.ProgressEvery)
		}
		if cmd.LearningRate >= 0 || cmd.DiscountFactor >= 0 || cmd.Epsilon >= 0 || cmd.Seed != 0 {
			log.Warn().Msg("cannot change learning parameters or seed when resuming from checkpoint; keeping original values")
		}
		trainCfg := trainer.TrainingConfig()
		log.Info().
			Str("run_id", trainer.RunID()).
			Int("episodes", trainCfg.Episodes).
			Int64("resume_episode", trainer.Episode()).
			Int("workers", trainCfg.Workers).
			Str("checkpoint", cmd.ResumeFrom).
			Msg("resuming training run")
	} else {
		train := cmd.trainingConfig(cfg.Training)
		trainer, err = solver.NewTrainer(train)
		if err != nil {
			return nil, err
		}
		train = trainer.TrainingConfig()
		log.Info().
			Str("run_id", trainer.RunID()).
			Int("episodes", train.Episodes).
			Float64("alpha", train.LearningRate).
			Float64("gamma", train.DiscountFactor).
			Float64("epsilon", train.Epsilon).
			Int64("seed", train.Seed).
			Int("workers", train.Workers).
			Msg("starting training run")
	}

	if checkpointPath != "" && checkpointEvery > 0 {
		trainer.EnableCheckpoints(checkpointPath, checkpointEvery)
	}
	return trainer, nil
}

// train runs trainer to completion, logging progress and, when curve is
// non-nil, recording a greedy evaluation every chartEvery episodes.
func train(ctx context.Context, trainer *solver.Trainer, cfg *config.Config, curve *chart.Curve, chartEvery, chartGames int) error {
	start := time.Now()
	nextPoint := chartEvery
	progress := func(p solver.Progress) {
		log.Info().
			Int("episode", p.Episode).
			Int("total", p.Total).
			Int("cells", p.TableCells).
			Int("states", p.States).
			Int64("transitions", p.Stats.Transitions).
			Int64("straights", p.Stats.Straights).
			Dur("elapsed", p.Stats.Elapsed).
			Msg("progress")

		if curve == nil || (p.Episode < nextPoint && p.Episode < p.Total) {
			return
		}
		for nextPoint <= p.Episode {
			nextPoint += chartEvery
		}
		res, err := solver.EvaluateDetailed(ctx, trainer.Table(), solver.EvalConfig{
			Games:   chartGames,
			Seed:    cfg.Evaluation.Seed,
			Workers: cfg.Evaluation.Workers,
		})
		if err != nil {
			log.Warn().Err(err).Int("episode", p.Episode).Msg("learning-curve evaluation failed")
			return
		}
		if err := curve.Add(chart.Point{
			Episode:    p.Episode,
			WinRate:    res.WinRate,
			Low:        res.Low,
			High:       res.High,
			TableCells: p.TableCells,
		}); err != nil {
			log.Warn().Err(err).Msg("learning-curve point rejected")
			return
		}
		log.Info().Int("episode", p.Episode).Float64("win_rate", res.WinRate).Msg("learning curve")
	}

	if err := trainer.Run(ctx, progress); err != nil {
		return err
	}

	stats := trainer.Stats()
	log.Info().
		Dur("duration", time.Since(start)).
		Int("cells", trainer.Table().Len()).
		Int("states", trainer.Table().States()).
		Int64("straights", stats.Straights).
		Msg("training completed")
	return nil
}

func saveTable(ctx context.Context, cfg *config.Config, trainer *solver.Trainer) error {
	ts, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := ts.Save(ctx, trainer.Table(), trainer.Meta()); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	log.Info().Str("store", fmt.Sprint(ts)).Msg("value table saved")
	return nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/display"
	"github.com/lox/straightq/sdk/solver"
)

func TestTrainingConfigOverrides(t *testing.T) {
	base := solver.DefaultTrainingConfig()

	kept := (&TrainCmd{LearningRate: -1, DiscountFactor: -1, Epsilon: -1}).trainingConfig(base)
	if kept != base {
		t.Fatalf("expected defaults to be kept, got %+v", kept)
	}

	cmd := &TrainCmd{Episodes: 500, LearningRate: 0.5, DiscountFactor: 0, Epsilon: -1, Seed: 9, Workers: 4}
	got := cmd.trainingConfig(base)
	if got.Episodes != 500 || got.LearningRate != 0.5 || got.Seed != 9 || got.Workers != 4 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.DiscountFactor != 0 {
		t.Fatalf("expected zero discount factor to override, got %v", got.DiscountFactor)
	}
	if got.Epsilon != base.Epsilon {
		t.Fatalf("expected epsilon %v, got %v", base.Epsilon, got.Epsilon)
	}
}

func TestEvalConfigOverrides(t *testing.T) {
	base := solver.DefaultEvalConfig()
	got := (&EvalCmd{Games: 10, Workers: 2}).evalConfig(base)
	if got.Games != 10 || got.Workers != 2 || got.Seed != base.Seed {
		t.Fatalf("unexpected eval config %+v", got)
	}
}

func TestShowGameFromFixedHand(t *testing.T) {
	var buf bytes.Buffer
	err := showGame(solver.NewValueTable(), "2c 9h Th Jh Qh 3d 4s 6c", 7, display.NewPrinter(&buf, false))
	if err != nil {
		t.Fatalf("showGame: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "GREEDY WALKTHROUGH") {
		t.Fatalf("missing header in output:\n%s", out)
	}
	if !strings.Contains(out, "Dealt:") || !strings.Contains(out, "9h") {
		t.Fatalf("missing dealt hand in output:\n%s", out)
	}
}

func TestShowGameRejectsBadHand(t *testing.T) {
	var buf bytes.Buffer
	if err := showGame(solver.NewValueTable(), "2c 3c", 1, display.NewPrinter(&buf, false)); err == nil {
		t.Fatal("expected error for short hand")
	}
}

func TestRunTrainsThenReuses(t *testing.T) {
	cfg := config.Default()
	cfg.Training.Episodes = 200
	cfg.Evaluation.Games = 20
	cfg.Storage.Path = filepath.Join(t.TempDir(), "q_table.json")

	stdout := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open devnull: %v", err)
	}
	os.Stdout = devnull
	t.Cleanup(func() {
		os.Stdout = stdout
		devnull.Close()
	})

	ctx := context.Background()
	cmd := &RunCmd{Seed: 3, NoColor: true}
	if err := cmd.Run(ctx, cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	table, meta, err := solver.LoadTable(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("load stored table: %v", err)
	}
	if meta.Episodes != 200 || table.Len() == 0 {
		t.Fatalf("unexpected stored table: episodes=%d cells=%d", meta.Episodes, table.Len())
	}

	info, err := os.Stat(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := cmd.Run(ctx, cfg); err != nil {
		t.Fatalf("second run: %v", err)
	}
	again, err := os.Stat(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !again.ModTime().Equal(info.ModTime()) {
		t.Fatal("expected stored table to be reused, not rewritten")
	}
}

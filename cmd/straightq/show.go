package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/deck"
	"github.com/lox/straightq/internal/display"
	"github.com/lox/straightq/internal/hand"
	"github.com/lox/straightq/internal/randutil"
	"github.com/lox/straightq/sdk/solver"
)

type ShowCmd struct {
	Hand    string `help:"start from this hand instead of a random deal (e.g. \"2c 9h Th Jh Qh 3d 4s 6c\")"`
	Seed    int64  `help:"random seed for the deal and draws (0 => time-based)" default:"0"`
	NoColor bool   `help:"disable colored output"`
}

func (cmd *ShowCmd) Run(ctx context.Context, cfg *config.Config) error {
	table, _, err := loadTable(ctx, cfg)
	if err != nil {
		return err
	}
	return showGame(table, cmd.Hand, cmd.Seed, display.NewPrinter(os.Stdout, !cmd.NoColor))
}

// showGame plays one greedy game and prints its walkthrough. An empty start
// deals a random hand.
func showGame(table *solver.ValueTable, start string, seed int64, printer *display.Printer) error {
	seed = randutil.Seed(seed)
	rng := randutil.New(seed)
	log.Debug().Int64("seed", seed).Str("hand", start).Msg("playing greedy game")

	var (
		ep  solver.Episode
		err error
	)
	if start == "" {
		ep, err = solver.PlayEpisode(table, solver.PlayConfig{}, rng)
	} else {
		h, perr := hand.Parse(start)
		if perr != nil {
			return perr
		}
		d := deck.NewDeck(rng)
		if err := d.Remove(h...); err != nil {
			return err
		}
		ep, err = solver.PlayFrom(table, h, d, solver.PlayConfig{}, rng)
	}
	if err != nil {
		return err
	}
	return printer.Walkthrough(ep, table)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/straightq/internal/config"
	"github.com/lox/straightq/internal/store"
	"github.com/lox/straightq/sdk/solver"
)

type Globals struct {
	Config string `help:"path to HCL configuration file" default:"straightq.hcl" type:"path"`
	Debug  bool   `help:"enable debug logging"`
	DSN    string `help:"PostgreSQL connection string; selects the database table store" env:"STRAIGHTQ_DSN"`
}

var cli struct {
	Globals

	Run   RunCmd   `cmd:"" default:"1" help:"load or train a value table, evaluate it and show one greedy game"`
	Train TrainCmd `cmd:"" help:"train a value table with Q-learning and save it"`
	Eval  EvalCmd  `cmd:"" help:"evaluate a stored value table with greedy play"`
	Show  ShowCmd  `cmd:"" help:"render one greedy game against a stored value table"`
	Serve ServeCmd `cmd:"" help:"serve discard advice over HTTP"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	kctx := kong.Parse(&cli,
		kong.Name("straightq"),
		kong.Description("Tabular Q-learning for drawing to a straight"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(&cli.Globals)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	switch kctx.Command() {
	case "run":
		err = cli.Run.Run(ctx, cfg)
	case "train":
		err = cli.Train.Run(ctx, cfg)
	case "eval":
		err = cli.Eval.Run(ctx, cfg)
	case "show":
		err = cli.Show.Run(ctx, cfg)
	case "serve":
		err = cli.Serve.Run(ctx, cfg)
	default:
		log.Fatal().Msgf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", kctx.Command())
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.DSN != "" {
		cfg.Storage.DSN = g.DSN
	}
	log.Debug().
		Str("config", g.Config).
		Bool("postgres", cfg.Storage.DSN != "").
		Str("path", cfg.Storage.Path).
		Msg("configuration loaded")
	return cfg, nil
}

// openStore returns the table store selected by cfg and a function releasing
// its resources.
func openStore(ctx context.Context, cfg *config.Config) (solver.TableStore, func(), error) {
	if cfg.Storage.DSN == "" {
		return solver.FileStore{Path: cfg.Storage.Path}, func() {}, nil
	}

	db, err := store.Open(ctx, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return store.NewPGStore(db, cfg.Storage.Name), db.Close, nil
}

// loadTable reads the stored table, failing with a clear message when none
// has been trained yet.
func loadTable(ctx context.Context, cfg *config.Config) (*solver.ValueTable, solver.TableMeta, error) {
	ts, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, solver.TableMeta{}, err
	}
	defer closeStore()

	ok, err := ts.Exists(ctx)
	if err != nil {
		return nil, solver.TableMeta{}, err
	}
	if !ok {
		return nil, solver.TableMeta{}, fmt.Errorf("no value table at %v; run `straightq train` first", ts)
	}
	table, meta, err := ts.Load(ctx)
	if err != nil {
		return nil, solver.TableMeta{}, fmt.Errorf("load table: %w", err)
	}
	log.Info().
		Str("run_id", meta.RunID).
		Int("episodes", meta.Episodes).
		Int("cells", table.Len()).
		Int("states", table.States()).
		Msg("value table loaded")
	return table, meta, nil
}

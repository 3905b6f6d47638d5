// Package config loads the HCL run configuration for straightq.
//
//	training {
//	  episodes      = 1000000
//	  learning_rate = 0.1
//	  epsilon       = 0.1
//	}
//
//	evaluation {
//	  games = 10000
//	}
//
//	storage {
//	  path = "q_table.json"
//	}
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/straightq/sdk/solver"
)

// Config is the resolved run configuration.
type Config struct {
	Training   solver.TrainingConfig
	Evaluation solver.EvalConfig
	Checkpoint CheckpointSettings
	Storage    StorageSettings
	Server     ServerSettings
}

// CheckpointSettings controls periodic checkpoints while training.
type CheckpointSettings struct {
	Path  string
	Every int
}

// StorageSettings selects where the learned table lives. A non-empty DSN
// selects PostgreSQL; otherwise the JSON file at Path is used.
type StorageSettings struct {
	Path string
	DSN  string
	// Name identifies the table within the database.
	Name string
}

// ServerSettings configures the advice service.
type ServerSettings struct {
	Address string
}

const (
	DefaultTablePath     = "q_table.json"
	DefaultTableName     = "default"
	DefaultServerAddress = "localhost:8080"
)

// Default returns the configuration of the reference experiment.
func Default() *Config {
	return &Config{
		Training:   solver.DefaultTrainingConfig(),
		Evaluation: solver.DefaultEvalConfig(),
		Storage: StorageSettings{
			Path: DefaultTablePath,
			Name: DefaultTableName,
		},
		Server: ServerSettings{
			Address: DefaultServerAddress,
		},
	}
}

type fileConfig struct {
	Training   *trainingBlock   `hcl:"training,block"`
	Evaluation *evaluationBlock `hcl:"evaluation,block"`
	Storage    *storageBlock    `hcl:"storage,block"`
	Server     *serverBlock     `hcl:"server,block"`
}

type trainingBlock struct {
	Episodes        *int     `hcl:"episodes,optional"`
	LearningRate    *float64 `hcl:"learning_rate,optional"`
	DiscountFactor  *float64 `hcl:"discount_factor,optional"`
	Epsilon         *float64 `hcl:"epsilon,optional"`
	Seed            *int64   `hcl:"seed,optional"`
	Workers         *int     `hcl:"workers,optional"`
	ProgressEvery   *int     `hcl:"progress_every,optional"`
	CheckpointPath  *string  `hcl:"checkpoint_path,optional"`
	CheckpointEvery *int     `hcl:"checkpoint_every,optional"`
}

type evaluationBlock struct {
	Games   *int   `hcl:"games,optional"`
	Seed    *int64 `hcl:"seed,optional"`
	Workers *int   `hcl:"workers,optional"`
}

type storageBlock struct {
	Path *string `hcl:"path,optional"`
	DSN  *string `hcl:"dsn,optional"`
	Name *string `hcl:"name,optional"`
}

type serverBlock struct {
	Address *string `hcl:"address,optional"`
}

// Load reads configuration from an HCL file. A missing file (or an empty
// filename) yields the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(src, filename)
}

// Parse decodes HCL source. Attributes that are not set keep their default
// values.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %w", diags)
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	cfg := Default()
	fc.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if t := fc.Training; t != nil {
		set(&cfg.Training.Episodes, t.Episodes)
		set(&cfg.Training.LearningRate, t.LearningRate)
		set(&cfg.Training.DiscountFactor, t.DiscountFactor)
		set(&cfg.Training.Epsilon, t.Epsilon)
		set(&cfg.Training.Seed, t.Seed)
		set(&cfg.Training.Workers, t.Workers)
		set(&cfg.Training.ProgressEvery, t.ProgressEvery)
		set(&cfg.Checkpoint.Path, t.CheckpointPath)
		set(&cfg.Checkpoint.Every, t.CheckpointEvery)
	}
	if e := fc.Evaluation; e != nil {
		set(&cfg.Evaluation.Games, e.Games)
		set(&cfg.Evaluation.Seed, e.Seed)
		set(&cfg.Evaluation.Workers, e.Workers)
	}
	if s := fc.Storage; s != nil {
		set(&cfg.Storage.Path, s.Path)
		set(&cfg.Storage.DSN, s.DSN)
		set(&cfg.Storage.Name, s.Name)
	}
	if s := fc.Server; s != nil {
		set(&cfg.Server.Address, s.Address)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	if c.Checkpoint.Every < 0 {
		return errors.New("training: checkpoint_every cannot be negative")
	}
	if c.Storage.DSN == "" && c.Storage.Path == "" {
		return errors.New("storage: path or dsn is required")
	}
	if c.Storage.Name == "" {
		return errors.New("storage: name cannot be empty")
	}
	return nil
}

package solver

import (
	"errors"
	"fmt"
)

// EnableCheckpoints configures the trainer to write checkpoints every n
// episodes and when the run completes.
func (t *Trainer) EnableCheckpoints(path string, every int) {
	t.checkpointPath = path
	t.checkpointEvery = every
}

// SaveCheckpoint writes the table together with the training configuration
// and progress so that LoadTrainerFromCheckpoint can continue the run.
func (t *Trainer) SaveCheckpoint(path string) error {
	if err := SaveTable(path, t.table, t.Meta()); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadTrainerFromCheckpoint restores a trainer from a previously saved
// checkpoint. The restored trainer continues with episode Meta.Episodes.
func LoadTrainerFromCheckpoint(path string, opts ...Option) (*Trainer, error) {
	table, meta, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return ResumeTrainer(table, meta, opts...)
}

// ResumeTrainer builds a trainer that continues the run described by meta.
func ResumeTrainer(table *ValueTable, meta TableMeta, opts ...Option) (*Trainer, error) {
	if meta.Training == nil {
		return nil, errors.New("checkpoint has no training configuration")
	}
	cfg := *meta.Training
	if meta.Episodes > cfg.Episodes {
		cfg.Episodes = meta.Episodes
	}

	all := append([]Option{WithTable(table), WithRunID(meta.RunID)}, opts...)
	trainer, err := NewTrainer(cfg, all...)
	if err != nil {
		return nil, err
	}
	trainer.episode.Store(int64(meta.Episodes))
	if meta.Stats != nil {
		trainer.stats = *meta.Stats
	}
	return trainer, nil
}

package solver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lox/straightq/internal/randutil"
)

// TrainingStats captures counters accumulated while training.
type TrainingStats struct {
	Episodes    int64         `json:"episodes"`
	Transitions int64         `json:"transitions"`
	Straights   int64         `json:"straights"`
	Elapsed     time.Duration `json:"elapsed"`
}

func (s *TrainingStats) add(o TrainingStats) {
	s.Episodes += o.Episodes
	s.Transitions += o.Transitions
	s.Straights += o.Straights
}

// Progress contains metadata emitted after every batch of episodes.
type Progress struct {
	Episode    int
	Total      int
	TableCells int
	States     int
	Stats      TrainingStats
}

// Trainer runs Q-learning episodes against a value table.
type Trainer struct {
	cfg     TrainingConfig
	table   *ValueTable
	learner Learner
	clock   quartz.Clock
	runID   string

	episode atomic.Int64
	statsMu sync.Mutex
	stats   TrainingStats

	checkpointPath  string
	checkpointEvery int
}

// Option customises a Trainer.
type Option func(*Trainer)

// WithTable trains into an existing table instead of an empty one.
func WithTable(table *ValueTable) Option {
	return func(t *Trainer) { t.table = table }
}

// WithClock sets the clock used for elapsed-time reporting.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) { t.clock = clock }
}

// WithRunID sets the identifier recorded in checkpoints.
func WithRunID(id string) Option {
	return func(t *Trainer) { t.runID = id }
}

// NewTrainer constructs a trainer. The seed is used as given, zero included,
// and is kept in the config so checkpoints resume the same episode sequence.
func NewTrainer(cfg TrainingConfig, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:     cfg,
		learner: cfg.Learner(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.table == nil {
		t.table = NewValueTable()
	}
	if t.clock == nil {
		t.clock = quartz.NewReal()
	}
	if t.runID == "" {
		t.runID = uuid.NewString()
	}
	return t, nil
}

// Run plays the remaining episodes of the configured total. Episodes are
// processed in batches; progress, when non-nil, is called after each batch
// while no episode is running.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	batch := t.cfg.Episodes / 100
	if batch == 0 {
		batch = 1
	}
	if t.cfg.ProgressEvery > 0 {
		batch = t.cfg.ProgressEvery
	}

	start := t.clock.Now()
	base := t.Stats().Elapsed

	for done := int(t.episode.Load()); done < t.cfg.Episodes; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := min(batch, t.cfg.Episodes-done)
		stats, played, err := t.runBatch(ctx, done, n)
		prev := done
		done += played
		t.episode.Store(int64(done))
		stats.Elapsed = base + t.clock.Since(start)
		t.recordStats(stats)
		if err != nil {
			return err
		}

		if t.checkpointPath != "" && t.checkpointEvery > 0 && done/t.checkpointEvery != prev/t.checkpointEvery {
			if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
				return err
			}
		}

		if progress != nil {
			progress(Progress{
				Episode:    done,
				Total:      t.cfg.Episodes,
				TableCells: t.table.Len(),
				States:     t.table.States(),
				Stats:      t.Stats(),
			})
		}
	}

	if t.checkpointPath != "" && t.checkpointEvery > 0 {
		if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
			return err
		}
	}
	return nil
}

// runBatch plays episodes [first, first+n). Episode i always draws from the
// generator derived from (seed, i), so the set of deals does not depend on
// the number of workers. It returns the stats of every episode played and the
// length of the completed prefix of the batch, which is less than n when ctx
// is cancelled or an episode fails.
func (t *Trainer) runBatch(ctx context.Context, first, n int) (TrainingStats, int, error) {
	workers := min(t.cfg.Workers, n)
	if workers <= 1 {
		var stats TrainingStats
		for i := first; i < first+n; i++ {
			if err := ctx.Err(); err != nil {
				return stats, i - first, err
			}
			if err := t.trainEpisode(i, &stats); err != nil {
				return stats, i - first, err
			}
		}
		return stats, n, nil
	}

	partial := make([]TrainingStats, workers)
	// next[w] is the first episode worker w has not completed.
	next := make([]int, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		next[w] = first + w
		g.Go(func() error {
			for i := first + w; i < first+n; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := t.trainEpisode(i, &partial[w]); err != nil {
					return err
				}
				next[w] = i + workers
			}
			return nil
		})
	}
	err := g.Wait()

	var stats TrainingStats
	for _, p := range partial {
		stats.add(p)
	}
	if err != nil {
		prefix := first + n
		for _, i := range next {
			prefix = min(prefix, i)
		}
		return stats, prefix - first, err
	}
	return stats, n, nil
}

func (t *Trainer) trainEpisode(i int, stats *TrainingStats) error {
	rng := randutil.New(randutil.Derive(t.cfg.Seed, uint64(i)))
	ep, err := PlayEpisode(t.table, PlayConfig{Epsilon: t.cfg.Epsilon, Learner: &t.learner}, rng)
	if err != nil {
		return fmt.Errorf("episode %d: %w", i, err)
	}
	stats.Episodes++
	stats.Transitions += int64(len(ep.Transitions))
	if ep.Won {
		stats.Straights++
	}
	return nil
}

func (t *Trainer) recordStats(batch TrainingStats) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	t.stats.add(batch)
	t.stats.Elapsed = batch.Elapsed
}

// Stats returns the counters accumulated so far, including those restored
// from a checkpoint.
func (t *Trainer) Stats() TrainingStats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// Table returns the table being trained.
func (t *Trainer) Table() *ValueTable {
	return t.table
}

// RunID returns the identifier of this training run.
func (t *Trainer) RunID() string {
	return t.runID
}

func (t *Trainer) TrainingConfig() TrainingConfig {
	return t.cfg
}

// Episode returns the number of completed episodes.
func (t *Trainer) Episode() int64 {
	return t.episode.Load()
}

// SetTotalEpisodes changes the episode target, typically to extend a run
// resumed from a checkpoint.
func (t *Trainer) SetTotalEpisodes(n int) error {
	current := int(t.episode.Load())
	if n < current {
		return fmt.Errorf("total episodes %d less than completed %d", n, current)
	}
	if n <= 0 {
		return fmt.Errorf("total episodes must be > 0")
	}
	t.cfg.Episodes = n
	return nil
}

func (t *Trainer) SetProgressEvery(n int) {
	if n < 0 {
		n = 0
	}
	t.cfg.ProgressEvery = n
}

// SetWorkers changes the number of goroutines used for the remaining episodes.
func (t *Trainer) SetWorkers(n int) error {
	if n <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	t.cfg.Workers = n
	return nil
}

// Meta describes the trainer's current state for persistence.
func (t *Trainer) Meta() TableMeta {
	cfg := t.cfg
	stats := t.Stats()
	return TableMeta{
		RunID:       t.runID,
		GeneratedAt: t.clock.Now().UTC(),
		Episodes:    int(t.episode.Load()),
		Training:    &cfg,
		Stats:       &stats,
	}
}

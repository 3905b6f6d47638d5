// Package store keeps learned value tables in PostgreSQL.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/straightq/sdk/solver"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close()                         { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Migrate creates the tables used by PGStore if they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// PGStore persists one named value table. It implements solver.TableStore.
type PGStore struct {
	db   *DB
	name string
}

var _ solver.TableStore = (*PGStore)(nil)

// NewPGStore returns a store for the table called name.
func NewPGStore(db *DB, name string) *PGStore {
	return &PGStore{db: db, name: name}
}

func (s *PGStore) String() string {
	return "postgres:" + s.name
}

func (s *PGStore) Exists(ctx context.Context) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM q_tables WHERE name = $1)`, s.name).Scan(&ok)
	return ok, err
}

// Load reads the table and its metadata. Keys are parsed strictly, and a bad
// row fails the whole load with a *solver.MalformedTableError.
func (s *PGStore) Load(ctx context.Context) (*solver.ValueTable, solver.TableMeta, error) {
	var (
		meta            solver.TableMeta
		episodes        int64
		training, stats []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT run_id, episodes, generated_at, training, stats
		  FROM q_tables WHERE name = $1
	`, s.name).Scan(&meta.RunID, &episodes, &meta.GeneratedAt, &training, &stats)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, solver.TableMeta{}, fmt.Errorf("table %q not found", s.name)
	}
	if err != nil {
		return nil, solver.TableMeta{}, err
	}
	meta.Episodes = int(episodes)
	meta.GeneratedAt = meta.GeneratedAt.UTC()
	if training != nil {
		meta.Training = new(solver.TrainingConfig)
		if err := json.Unmarshal(training, meta.Training); err != nil {
			return nil, solver.TableMeta{}, &solver.MalformedTableError{Err: fmt.Errorf("training: %w", err)}
		}
	}
	if stats != nil {
		meta.Stats = new(solver.TrainingStats)
		if err := json.Unmarshal(stats, meta.Stats); err != nil {
			return nil, solver.TableMeta{}, &solver.MalformedTableError{Err: fmt.Errorf("stats: %w", err)}
		}
	}

	rows, err := s.db.Query(ctx, `SELECT state, action, value FROM q_values WHERE table_name = $1`, s.name)
	if err != nil {
		return nil, solver.TableMeta{}, err
	}
	defer rows.Close()

	table := solver.NewValueTable()
	states := make(map[string]solver.State)
	for rows.Next() {
		var (
			sk, ak string
			v      float64
		)
		if err := rows.Scan(&sk, &ak, &v); err != nil {
			return nil, solver.TableMeta{}, err
		}
		state, ok := states[sk]
		if !ok {
			state, err = solver.ParseState(sk)
			if err != nil {
				return nil, solver.TableMeta{}, &solver.MalformedTableError{Key: sk, Err: err}
			}
			states[sk] = state
		}
		action, err := solver.ParseAction(ak)
		if err != nil {
			return nil, solver.TableMeta{}, &solver.MalformedTableError{Key: ak, Err: err}
		}
		if err := table.Set(solver.Key{State: state, Action: action}, v); err != nil {
			return nil, solver.TableMeta{}, &solver.MalformedTableError{Key: ak, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, solver.TableMeta{}, err
	}
	return table, meta, nil
}

// Save replaces the stored table in a single transaction.
func (s *PGStore) Save(ctx context.Context, table *solver.ValueTable, meta solver.TableMeta) error {
	training, err := marshalOptional(meta.Training)
	if err != nil {
		return err
	}
	stats, err := marshalOptional(meta.Stats)
	if err != nil {
		return err
	}
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO q_tables(name, run_id, episodes, generated_at, training, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		   SET run_id = EXCLUDED.run_id,
		       episodes = EXCLUDED.episodes,
		       generated_at = EXCLUDED.generated_at,
		       training = EXCLUDED.training,
		       stats = EXCLUDED.stats,
		       updated_at = now()
	`, s.name, meta.RunID, int64(meta.Episodes), generated, training, stats); err != nil {
		return fmt.Errorf("upsert table: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM q_values WHERE table_name = $1`, s.name); err != nil {
		return fmt.Errorf("clear values: %w", err)
	}

	rows := make([][]any, 0, table.Len())
	table.Range(func(k solver.Key, v float64) bool {
		rows = append(rows, []any{s.name, k.State.String(), k.Action.String(), v})
		return true
	})
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"q_values"},
		[]string{"table_name", "state", "action", "value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy values: %w", err)
	}
	return tx.Commit(ctx)
}

// Delete removes the stored table, if any.
func (s *PGStore) Delete(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM q_tables WHERE name = $1`, s.name)
	return err
}

// marshalOptional returns nil for a nil pointer so the column stays NULL.
func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

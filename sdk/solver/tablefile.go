package solver

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lox/straightq/internal/fileutil"
)

const tableFileVersion = 1

//go:embed schemas/table.json
var schemaFiles embed.FS

const tableSchemaURL = "https://straightq.dev/schemas/table.json"

var (
	tableSchemaOnce sync.Once
	tableSchema     *jsonschema.Schema
	tableSchemaErr  error
)

func compiledTableSchema() (*jsonschema.Schema, error) {
	tableSchemaOnce.Do(func() {
		data, err := schemaFiles.ReadFile("schemas/table.json")
		if err != nil {
			tableSchemaErr = fmt.Errorf("read table schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(tableSchemaURL, bytes.NewReader(data)); err != nil {
			tableSchemaErr = fmt.Errorf("add table schema: %w", err)
			return
		}
		tableSchema, tableSchemaErr = compiler.Compile(tableSchemaURL)
	})
	return tableSchema, tableSchemaErr
}

// MalformedTableError reports a persisted table that cannot be turned back
// into states, actions and values. Loading never returns a partial table.
type MalformedTableError struct {
	// Key is the offending state or action key, if any.
	Key string
	Err error
}

func (e *MalformedTableError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("malformed value table: key %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("malformed value table: %v", e.Err)
}

func (e *MalformedTableError) Unwrap() error {
	return e.Err
}

// TableMeta describes where a table came from.
type TableMeta struct {
	RunID       string          `json:"run_id,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Episodes    int             `json:"episodes"`
	Training    *TrainingConfig `json:"training,omitempty"`
	Stats       *TrainingStats  `json:"stats,omitempty"`
}

type tableFile struct {
	Version int `json:"version"`
	TableMeta
	Values map[string]map[string]float64 `json:"values"`
}

// WriteTable encodes table and meta as JSON. Values are written with the
// shortest representation that parses back to the identical float64.
func WriteTable(w io.Writer, table *ValueTable, meta TableMeta) error {
	doc := tableFile{
		Version:   tableFileVersion,
		TableMeta: meta,
		Values:    make(map[string]map[string]float64, table.States()),
	}
	table.Range(func(k Key, v float64) bool {
		sk := k.State.String()
		actions, ok := doc.Values[sk]
		if !ok {
			actions = make(map[string]float64)
			doc.Values[sk] = actions
		}
		actions[k.Action.String()] = v
		return true
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	return nil
}

// ReadTable decodes a table written by WriteTable. The document is checked
// against the embedded JSON schema and every key is parsed strictly; any
// problem is reported as a *MalformedTableError.
func ReadTable(r io.Reader) (*ValueTable, TableMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, TableMeta{}, fmt.Errorf("read table: %w", err)
	}

	schema, err := compiledTableSchema()
	if err != nil {
		return nil, TableMeta{}, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, TableMeta{}, &MalformedTableError{Err: err}
	}
	if err := schema.Validate(raw); err != nil {
		return nil, TableMeta{}, &MalformedTableError{Err: err}
	}

	var doc tableFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, TableMeta{}, &MalformedTableError{Err: err}
	}
	if doc.Version != tableFileVersion {
		return nil, TableMeta{}, &MalformedTableError{Err: fmt.Errorf("unsupported table version %d", doc.Version)}
	}
	if doc.Training != nil {
		if err := doc.Training.Validate(); err != nil {
			return nil, TableMeta{}, &MalformedTableError{Err: fmt.Errorf("training config: %w", err)}
		}
	}

	table := NewValueTable()
	for sk, actions := range doc.Values {
		state, err := ParseState(sk)
		if err != nil {
			return nil, TableMeta{}, &MalformedTableError{Key: sk, Err: err}
		}
		for ak, v := range actions {
			action, err := ParseAction(ak)
			if err != nil {
				return nil, TableMeta{}, &MalformedTableError{Key: ak, Err: err}
			}
			if err := table.Set(Key{State: state, Action: action}, v); err != nil {
				return nil, TableMeta{}, &MalformedTableError{Key: ak, Err: err}
			}
		}
	}
	return table, doc.TableMeta, nil
}

// SaveTable atomically writes table and meta to path.
func SaveTable(path string, table *ValueTable, meta TableMeta) error {
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteTable(w, table, meta)
	})
}

// LoadTable reads a table file from path.
func LoadTable(path string) (*ValueTable, TableMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, TableMeta{}, err
	}
	defer f.Close()
	return ReadTable(f)
}

// TableStore persists value tables.
type TableStore interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) (*ValueTable, TableMeta, error)
	Save(ctx context.Context, table *ValueTable, meta TableMeta) error
}

// FileStore keeps a table in a single JSON file.
type FileStore struct {
	Path string
}

var _ TableStore = FileStore{}

func (s FileStore) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.Path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s FileStore) Load(ctx context.Context) (*ValueTable, TableMeta, error) {
	return LoadTable(s.Path)
}

func (s FileStore) Save(ctx context.Context, table *ValueTable, meta TableMeta) error {
	return SaveTable(s.Path, table, meta)
}

func (s FileStore) String() string {
	return s.Path
}

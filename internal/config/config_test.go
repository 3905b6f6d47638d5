package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, cfg.Training.Episodes)
	assert.Equal(t, 0.1, cfg.Training.LearningRate)
	assert.Equal(t, 0.99, cfg.Training.DiscountFactor)
	assert.Equal(t, 0.1, cfg.Training.Epsilon)
	assert.Equal(t, 10_000, cfg.Evaluation.Games)
	assert.Equal(t, "q_table.json", cfg.Storage.Path)
}

func TestParseOverridesOnlySetAttributes(t *testing.T) {
	src := `
training {
  episodes        = 5000
  epsilon         = 0
  workers         = 4
  checkpoint_path = "ckpt.json"
  checkpoint_every = 1000
}

evaluation {
  games = 250
  seed  = 99
}

storage {
  path = "tables/q.json"
}

server {
  address = ":9090"
}
`
	cfg, err := Parse([]byte(src), "test.hcl")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Training.Episodes)
	assert.Equal(t, 0.0, cfg.Training.Epsilon)
	assert.Equal(t, 4, cfg.Training.Workers)
	assert.Equal(t, 0.1, cfg.Training.LearningRate, "unset attributes keep defaults")
	assert.Equal(t, 0.99, cfg.Training.DiscountFactor)
	assert.Equal(t, CheckpointSettings{Path: "ckpt.json", Every: 1000}, cfg.Checkpoint)
	assert.Equal(t, 250, cfg.Evaluation.Games)
	assert.Equal(t, int64(99), cfg.Evaluation.Seed)
	assert.Equal(t, "tables/q.json", cfg.Storage.Path)
	assert.Equal(t, DefaultTableName, cfg.Storage.Name)
	assert.Equal(t, ":9090", cfg.Server.Address)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "straightq.hcl")
	require.NoError(t, os.WriteFile(path, []byte("storage {\n  dsn = \"postgres://localhost/straightq\"\n}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/straightq", cfg.Storage.DSN)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":            "training {",
		"unknown attribute": "training {\n  speed = 3\n}\n",
		"wrong type":        "training {\n  episodes = \"lots\"\n}\n",
		"invalid alpha":     "training {\n  learning_rate = 0\n}\n",
		"invalid games":     "evaluation {\n  games = 0\n}\n",
		"empty storage":     "storage {\n  path = \"\"\n}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "bad.hcl")
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wumpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default().Board, cfg.Board)
	assert.Equal(t, PlayerHeuristic, cfg.Agent.Player)
	assert.Empty(t, cfg.Warnings())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, `
board:
  size: 6
  density: 0.35
  seed: 99
agent:
  tick: 250ms
  max_steps: 120
logging:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Board.Size)
	assert.Equal(t, 0.35, cfg.Board.Density)
	assert.Equal(t, uint64(99), cfg.Board.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Agent.Tick)
	assert.Equal(t, 120, cfg.Agent.MaxSteps)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, Default().Storage, cfg.Storage)
}

func TestLoadConfigSchemaErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "board:\n  colour: red\n",
		"density too big": "board:\n  density: 1.5\n",
		"size too small":  "board:\n  size: 1\n",
		"bad tick":        "agent:\n  tick: soon\n",
		"bad player":      "agent:\n  player: random\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("WUMPUS_SIZE", "3")
	t.Setenv("WUMPUS_DENSITY", "0.6")
	t.Setenv("WUMPUS_SEED", "12")
	cfg, err := LoadConfig(writeFile(t, "board:\n  size: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Board.Size)
	assert.Equal(t, 0.6, cfg.Board.Density)
	assert.Equal(t, uint64(12), cfg.Board.Seed)
	assert.Len(t, cfg.Warnings(), 2)

	t.Setenv("WUMPUS_SIZE", "big")
	_, err = LoadConfig(writeFile(t, ""))
	assert.Error(t, err)
}

func TestGeminiPlayerNeedsKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("WUMPUS_PLAYER", PlayerGemini)
	_, err := LoadConfig(writeFile(t, ""))
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err := LoadConfig(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.GeminiAPIKey)
}

func TestValidateHardLimits(t *testing.T) {
	cfg := Default()
	cfg.Board.Density = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Agent.MaxSteps = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Board.Size = 2
	cfg.Board.Density = 0.9
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Board.Size = MaxBoardSize
	assert.NoError(t, cfg.Validate())
	cfg.Board.Size = MaxBoardSize + 1
	assert.Error(t, cfg.Validate())
}

func TestBoardSizeLimitSameFromEverySource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("WUMPUS_PLAYER", "")

	_, err := LoadConfig(writeFile(t, "board:\n  size: 65\n"))
	assert.Error(t, err, "yaml")

	t.Setenv("WUMPUS_SIZE", "65")
	_, err = LoadConfig(writeFile(t, ""))
	assert.Error(t, err, "env")

	t.Setenv("WUMPUS_SIZE", "64")
	cfg, err := LoadConfig(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Board.Size)
}

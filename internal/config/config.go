package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/wumpus/internal/models"
)

// DefaultPath is read when no path is given and the file exists.
const DefaultPath = "wumpus.yaml"

// MaxBoardSize is the largest board accepted from any source. The embedded
// schema carries the same bound.
const MaxBoardSize = 64

const (
	PlayerHeuristic = "heuristic"
	PlayerGemini    = "gemini"
)

//go:embed config.schema.json
var configSchema string

// Config holds the application configuration.
type Config struct {
	Board     BoardConfig     `yaml:"board"`
	Agent     AgentConfig     `yaml:"agent"`
	Storage   StorageConfig   `yaml:"storage"`
	Spectator SpectatorConfig `yaml:"spectator"`
	Logging   LoggingConfig   `yaml:"logging"`

	GeminiAPIKey string `yaml:"-"`
}

type BoardConfig struct {
	Size    int     `yaml:"size"`
	Density float64 `yaml:"density"`
	// Seed 0 asks for a fresh seed per episode.
	Seed uint64 `yaml:"seed"`
}

type AgentConfig struct {
	Player   string        `yaml:"player"`
	Model    string        `yaml:"model"`
	Tick     time.Duration `yaml:"tick"`
	MaxSteps int           `yaml:"max_steps"`
}

type StorageConfig struct {
	TranscriptsDir string `yaml:"transcripts_dir"`
	ReplayDir      string `yaml:"replay_dir"`
	ResultsDB      string `yaml:"results_db"`
}

type SpectatorConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Board: BoardConfig{Size: 4, Density: 0.2},
		Agent: AgentConfig{
			Player:   PlayerHeuristic,
			Model:    "gemini-2.5-flash",
			Tick:     time.Second,
			MaxSteps: 500,
		},
		Storage: StorageConfig{
			TranscriptsDir: models.DefaultTranscriptDir,
			ReplayDir:      ".wumpus/replays",
			ResultsDB:      ".wumpus/results.db",
		},
		Spectator: SpectatorConfig{Addr: "127.0.0.1:8088"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads the configuration from path (or DefaultPath when path is
// empty and that file exists), then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.merge(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge validates raw YAML against the schema and decodes it over c.
func (c *Config) merge(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	return yaml.Unmarshal(raw, c)
}

func validateDocument(doc any) error {
	schema, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// the validator expects encoding/json shapes
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WUMPUS_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WUMPUS_SIZE: %w", err)
		}
		c.Board.Size = n
	}
	if v := os.Getenv("WUMPUS_DENSITY"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("WUMPUS_DENSITY: %w", err)
		}
		c.Board.Density = d
	}
	if v := os.Getenv("WUMPUS_SEED"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WUMPUS_SEED: %w", err)
		}
		c.Board.Seed = s
	}
	if v := os.Getenv("WUMPUS_PLAYER"); v != "" {
		c.Agent.Player = v
	}
	if v := os.Getenv("WUMPUS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	return nil
}

// Validate checks the hard limits. Values that are legal but outside the
// recommended ranges are reported by Warnings instead.
func (c *Config) Validate() error {
	if c.Board.Size < 2 || c.Board.Size > MaxBoardSize {
		return fmt.Errorf("board size %d: must be between 2 and %d", c.Board.Size, MaxBoardSize)
	}
	if !(c.Board.Density > 0 && c.Board.Density < 1) {
		return fmt.Errorf("board density %v: must be strictly between 0 and 1", c.Board.Density)
	}
	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent max_steps %d: must be positive", c.Agent.MaxSteps)
	}
	if c.Agent.Tick < 0 {
		return fmt.Errorf("agent tick %v: must not be negative", c.Agent.Tick)
	}
	switch c.Agent.Player {
	case PlayerHeuristic:
	case PlayerGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown player %q", c.Agent.Player)
	}
	return nil
}

// Warnings lists settings that work but fall outside the tested ranges.
func (c *Config) Warnings() []string {
	var w []string
	if c.Board.Size < 4 || c.Board.Size > 8 {
		w = append(w, fmt.Sprintf("board size %d is outside the recommended 4-8", c.Board.Size))
	}
	if c.Board.Density < 0.1 || c.Board.Density > 0.5 {
		w = append(w, fmt.Sprintf("density %.2f is outside the recommended 0.10-0.50", c.Board.Density))
	}
	return w
}

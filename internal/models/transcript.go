package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTranscriptDir is where finished episodes are written unless the
// configuration says otherwise.
const DefaultTranscriptDir = ".wumpus/transcripts"

// Transcript is the record of a finished episode. It is written for review
// and cannot be resumed.
type Transcript struct {
	ID      string    `yaml:"id"`
	Seed    uint64    `yaml:"seed"`
	Size    int       `yaml:"size"`
	Density float64   `yaml:"density"`
	Player  string    `yaml:"player"`
	Status  Status    `yaml:"status"`
	Score   int       `yaml:"score"`
	Turns   int       `yaml:"turns"`
	HasGold bool      `yaml:"has_gold"`
	Ended   time.Time `yaml:"ended"`
	Board   []string  `yaml:"-"`
	Log     []string  `yaml:"-"`
}

type transcriptBoard struct {
	Legend string   `yaml:"legend"`
	Rows   []string `yaml:"rows"`
}

type transcriptHistory struct {
	Entries []string `yaml:"entries"`
}

// NewTranscript summarises an episode. board is the grid as generated, before
// gold or the Wumpus were removed.
func NewTranscript(id string, seed uint64, density float64, player string, board Grid, final WorldState) Transcript {
	return Transcript{
		ID:      id,
		Seed:    seed,
		Size:    board.Size,
		Density: density,
		Player:  player,
		Status:  final.Status,
		Score:   final.Score,
		Turns:   final.Turn,
		HasGold: final.HasGold,
		Ended:   time.Now().UTC(),
		Board:   board.Rows(),
		Log:     append([]string(nil), final.Log...),
	}
}

// Save writes the transcript to dir/<id>/ as three YAML files.
func (t Transcript) Save(dir string) error {
	if t.ID == "" {
		return fmt.Errorf("transcript has no id")
	}
	dir = filepath.Join(dir, t.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeYAML(filepath.Join(dir, "summary.yaml"), t); err != nil {
		return err
	}
	board := transcriptBoard{Legend: ". empty, P pit, W wumpus, G gold", Rows: t.Board}
	if err := writeYAML(filepath.Join(dir, "board.yaml"), board); err != nil {
		return err
	}
	return writeYAML(filepath.Join(dir, "history.yaml"), transcriptHistory{Entries: t.Log})
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadTranscript reads the transcript saved under dir/<id>/.
func LoadTranscript(dir, id string) (*Transcript, error) {
	base := filepath.Join(dir, id)

	var t Transcript
	if err := readYAML(filepath.Join(base, "summary.yaml"), &t); err != nil {
		return nil, err
	}
	var board transcriptBoard
	if err := readYAML(filepath.Join(base, "board.yaml"), &board); err != nil {
		return nil, err
	}
	var history transcriptHistory
	if err := readYAML(filepath.Join(base, "history.yaml"), &history); err != nil {
		return nil, err
	}
	t.Board = board.Rows
	t.Log = history.Entries
	return &t, nil
}

// ListTranscripts returns the ids of saved transcripts, sorted.
func ListTranscripts(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			// summary.yaml marks a complete transcript
			if _, err := os.Stat(filepath.Join(dir, entry.Name(), "summary.yaml")); err == nil {
				ids = append(ids, entry.Name())
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

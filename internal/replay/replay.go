// Package replay records episodes step by step as zstd-compressed JSON lines.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/models"
)

// Record is one line of a replay file.
type Record struct {
	EpisodeID string           `json:"episode_id"`
	Turn      int              `json:"turn"`
	Action    models.Action    `json:"action"`
	Position  models.Position  `json:"position"`
	Facing    models.Direction `json:"facing"`
	Percept   models.Percept   `json:"percept"`
	Score     int              `json:"score"`
	HasGold   bool             `json:"has_gold"`
	Message   string           `json:"message"`
	GameOver  bool             `json:"game_over"`
	Status    models.Status    `json:"status"`
}

// FromStep flattens a driver step into a record.
func FromStep(s driver.Step) Record {
	return Record{
		EpisodeID: s.EpisodeID,
		Turn:      s.State.Turn,
		Action:    s.Action,
		Position:  s.State.Position,
		Facing:    s.State.Facing,
		Percept:   s.State.Percept,
		Score:     s.State.Score,
		HasGold:   s.State.HasGold,
		Message:   s.State.Message,
		GameOver:  s.State.GameOver,
		Status:    s.State.Status,
	}
}

// Writer appends records to a .jsonl.zst file. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Path returns the conventional replay file for an episode.
func Path(dir, episodeID string) string {
	return filepath.Join(dir, "episode-"+episodeID+".jsonl.zst")
}

func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return fmt.Errorf("replay writer closed")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Observe lets a Writer sit directly in a driver.Runner.
func (w *Writer) Observe(s driver.Step) error {
	return w.Write(FromStep(s))
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	var firstErr error
	if err := w.w.Flush(); err != nil {
		firstErr = err
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.w, w.enc, w.f = nil, nil, nil
	return firstErr
}

// ReadFile decodes every record in a replay file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

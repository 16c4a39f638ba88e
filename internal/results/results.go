// Package results keeps a SQLite table of finished episodes.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/wumpus/internal/models"
)

// Episode is one recorded play-through.
type Episode struct {
	ID      string
	Seed    uint64
	Size    int
	Density float64
	Player  string
	Status  models.Status
	Score   int
	Turns   int
	HasGold bool
	Ended   time.Time
}

// Summary aggregates every recorded episode.
type Summary struct {
	Episodes  int
	Wins      int
	Escapes   int
	Deaths    int
	MeanScore float64
	BestScore int
}

// WinRate is Wins/Episodes, or 0 when nothing is recorded.
func (s Summary) WinRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Episodes)
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			size INTEGER NOT NULL,
			density REAL NOT NULL,
			player TEXT NOT NULL,
			status TEXT NOT NULL,
			score INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			has_gold INTEGER NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS episodes_ended_at ON episodes(ended_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts e, replacing any earlier row with the same ID.
func (s *Store) Record(ctx context.Context, e Episode) error {
	if e.Ended.IsZero() {
		e.Ended = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO episodes(id, seed, size, density, player, status, score, turns, has_gold, ended_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, int64(e.Seed), e.Size, e.Density, e.Player, string(e.Status), e.Score, e.Turns,
		boolInt(e.HasGold), e.Ended.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record episode %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var (
		sum  Summary
		mean sql.NullFloat64
		best sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(status IN (?, ?)), 0),
		       AVG(score),
		       MAX(score)
		FROM episodes`,
		string(models.StatusWon), string(models.StatusEscaped),
		string(models.StatusEaten), string(models.StatusFell),
	).Scan(&sum.Episodes, &sum.Wins, &sum.Escapes, &sum.Deaths, &mean, &best)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize episodes: %w", err)
	}
	sum.MeanScore = mean.Float64
	sum.BestScore = int(best.Int64)
	return sum, nil
}

// Recent returns up to limit episodes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, size, density, player, status, score, turns, has_gold, ended_at
		FROM episodes ORDER BY ended_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var (
			e      Episode
			seed   int64
			status string
			gold   int
			ended  string
		)
		if err := rows.Scan(&e.ID, &seed, &e.Size, &e.Density, &e.Player, &status, &e.Score, &e.Turns, &gold, &ended); err != nil {
			return nil, err
		}
		e.Seed = uint64(seed)
		e.Status = models.Status(status)
		e.HasGold = gold != 0
		if t, err := time.Parse(time.RFC3339Nano, ended); err == nil {
			e.Ended = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

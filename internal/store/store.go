// Package store handles SQLite persistence of saved scores.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when no score matches a reference.
var ErrNotFound = errors.New("score not found")

// timeLayout keeps a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for saved scores.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY,
			ref TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			label TEXT NOT NULL,
			rulebook TEXT NOT NULL,
			input TEXT NOT NULL,
			levels_count INTEGER NOT NULL,
			raw_difficulty REAL NOT NULL,
			difficulty REAL NOT NULL,
			pct REAL NOT NULL,
			custom_score REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS score_sliders (
			score_id INTEGER NOT NULL,
			category TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (score_id, category)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_created_at ON scores(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertScore stores a score and its slider offsets. A reference is
// generated when the record has none.
func (s *Store) InsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if rec.Ref == "" {
		rec.Ref = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rec, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scores (ref, created_at, label, rulebook, input, levels_count, raw_difficulty, difficulty, pct, custom_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Ref,
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.Label,
		rec.Rulebook,
		rec.Input,
		rec.LevelsCount,
		rec.RawDifficulty,
		rec.Difficulty,
		rec.Pct,
		rec.CustomScore,
	)
	if err != nil {
		return rec, err
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return rec, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO score_sliders (score_id, category, value) VALUES (?, ?, ?)`)
	if err != nil {
		return rec, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, c := range scoring.SliderCategories {
		if _, err = stmt.ExecContext(ctx, rec.ID, string(c), rec.Sliders.Value(c)); err != nil {
			return rec, err
		}
	}

	if err = tx.Commit(); err != nil {
		return rec, err
	}
	return rec, nil
}

// ListScores returns saved scores filtered by rulebook and date, oldest first.
func (s *Store) ListScores(ctx context.Context, filter model.HistoryFilter) ([]model.ScoreRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Rulebook != "" {
		clauses = append(clauses, "rulebook = ?")
		args = append(args, filter.Rulebook)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, ref, created_at, label, rulebook, input, levels_count, raw_difficulty, difficulty, pct, custom_score
		FROM scores
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(records) > filter.Last {
		records = records[len(records)-filter.Last:]
	}
	if err := s.loadSliders(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetScore looks up one score by reference.
func (s *Store) GetScore(ctx context.Context, ref string) (model.ScoreRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ref, created_at, label, rulebook, input, levels_count, raw_difficulty, difficulty, pct, custom_score
		 FROM scores WHERE ref = ?`, ref)
	rec, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreRecord{}, ErrNotFound
	}
	if err != nil {
		return model.ScoreRecord{}, err
	}
	records := []model.ScoreRecord{rec}
	if err := s.loadSliders(ctx, records); err != nil {
		return model.ScoreRecord{}, err
	}
	return records[0], nil
}

// DeleteScore removes a score and its sliders.
func (s *Store) DeleteScore(ctx context.Context, ref string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	var id int64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM scores WHERE ref = ?`, ref).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM score_sliders WHERE score_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scores WHERE id = ?`, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// Count returns the number of saved scores.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (model.ScoreRecord, error) {
	var rec model.ScoreRecord
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.Ref, &createdAt, &rec.Label, &rec.Rulebook, &rec.Input, &rec.LevelsCount,
		&rec.RawDifficulty, &rec.Difficulty, &rec.Pct, &rec.CustomScore); err != nil {
		return model.ScoreRecord{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	rec.CreatedAt = parsed
	return rec, nil
}

func (s *Store) loadSliders(ctx context.Context, records []model.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	index := make(map[int64]int, len(records))
	placeholders := make([]string, len(records))
	args := make([]any, len(records))
	for i, rec := range records {
		index[rec.ID] = i
		placeholders[i] = "?"
		args[i] = rec.ID
	}
	query := fmt.Sprintf(`SELECT score_id, category, value FROM score_sliders WHERE score_id IN (%s)`,
		strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var id int64
		var category string
		var value float64
		if err := rows.Scan(&id, &category, &value); err != nil {
			return err
		}
		c, err := scoring.ParseCategory(category)
		if err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			records[i].Sliders.Set(c, value)
		}
	}
	return rows.Err()
}

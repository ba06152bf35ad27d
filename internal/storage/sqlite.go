package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS puzzles (
	id          TEXT PRIMARY KEY,
	universe    TEXT NOT NULL,
	active_date TEXT NOT NULL,
	character   TEXT NOT NULL,
	aliases     TEXT NOT NULL DEFAULT '[]',
	image_key   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	UNIQUE (universe, active_date)
);
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	streaks    TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS guesses (
	user_id        TEXT NOT NULL,
	puzzle_id      TEXT NOT NULL,
	attempt_number INTEGER NOT NULL,
	guess          TEXT NOT NULL,
	normalized     TEXT NOT NULL,
	correct        INTEGER NOT NULL,
	created_at     INTEGER NOT NULL,
	PRIMARY KEY (user_id, puzzle_id, attempt_number)
);
`

// SQLiteStore persists game state in an embedded SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (and if needed bootstraps) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrStorageUnavailable, op, err)
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s *SQLiteStore) scanPuzzle(row *sql.Row) (*models.Puzzle, error) {
	var p models.Puzzle
	var aliases string
	var createdAt int64
	err := row.Scan(&p.ID, &p.Universe, &p.ActiveDate, &p.Character, &aliases, &p.ImageKey, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPuzzleNotFound
		}
		return nil, storageErr("scan puzzle", err)
	}
	if err := json.Unmarshal([]byte(aliases), &p.Aliases); err != nil {
		return nil, storageErr("decode aliases", err)
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}

const selectPuzzle = `SELECT id, universe, active_date, character, aliases, image_key, created_at
	 FROM puzzles WHERE universe = ? AND active_date = ?`

func (s *SQLiteStore) GetByKey(ctx context.Context, universe, date string) (*models.Puzzle, error) {
	return s.scanPuzzle(s.sqlDB.QueryRowContext(ctx, selectPuzzle, universe, date))
}

func (s *SQLiteStore) CreateIfAbsent(ctx context.Context, p *models.Puzzle) (*models.Puzzle, error) {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	// The unique (universe, active_date) index makes the insert a no-op when
	// a concurrent creator got there first; the re-read returns the winner.
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO puzzles (id, universe, active_date, character, aliases, image_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		p.ID, p.Universe, p.ActiveDate, p.Character, encodeJSON(p.Aliases), p.ImageKey, createdAt.UnixMilli())
	if err != nil {
		return nil, storageErr("insert puzzle", err)
	}
	return s.GetByKey(ctx, p.Universe, p.ActiveDate)
}

func (s *SQLiteStore) UpdateCharacter(ctx context.Context, universe, date string, ch models.Character) (*models.Puzzle, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE puzzles SET character = ?, aliases = ?, image_key = ? WHERE universe = ? AND active_date = ?`,
		ch.Name, encodeJSON(ch.Aliases), ch.ImageKey, universe, date)
	if err != nil {
		return nil, storageErr("update puzzle character", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrPuzzleNotFound
	}
	return s.GetByKey(ctx, universe, date)
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff string) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM puzzles WHERE active_date < ?`, cutoff)
	if err != nil {
		return 0, storageErr("delete old puzzles", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete old puzzles", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var streaks string
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, streaks, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &streaks, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, storageErr("select user", err)
	}
	if err := json.Unmarshal([]byte(streaks), &u.Streaks); err != nil {
		return nil, storageErr("decode streaks", err)
	}
	if u.Streaks == nil {
		u.Streaks = make(map[string]models.UserStreak)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &u, nil
}

func (s *SQLiteStore) Create(ctx context.Context, u *models.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	streaks := u.Streaks
	if streaks == nil {
		streaks = map[string]models.UserStreak{}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, username, streaks, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, encodeJSON(streaks), createdAt.UnixMilli())
	if err != nil {
		return storageErr("insert user", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStreaks(ctx context.Context, id string, streaks map[string]models.UserStreak) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET streaks = ? WHERE id = ?`, encodeJSON(streaks), id)
	if err != nil {
		return storageErr("update streaks", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendAttempt(ctx context.Context, a *models.GuessAttempt) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO guesses (user_id, puzzle_id, attempt_number, guess, normalized, correct, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PuzzleID, a.AttemptNumber, a.Guess, a.Normalized, boolToInt(a.Correct), createdAt.UnixMilli())
	if err != nil {
		return storageErr("insert guess", err)
	}
	return nil
}

func (s *SQLiteStore) CountAttempts(ctx context.Context, userID, puzzleID string) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guesses WHERE user_id = ? AND puzzle_id = ?`, userID, puzzleID).Scan(&n)
	if err != nil {
		return 0, storageErr("count guesses", err)
	}
	return n, nil
}

func (s *SQLiteStore) HasSolved(ctx context.Context, userID, puzzleID string) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guesses WHERE user_id = ? AND puzzle_id = ? AND correct = 1`, userID, puzzleID).Scan(&n)
	if err != nil {
		return false, storageErr("check solved", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) History(ctx context.Context, userID, puzzleID string) ([]models.GuessAttempt, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id, puzzle_id, attempt_number, guess, normalized, correct, created_at
		 FROM guesses WHERE user_id = ? AND puzzle_id = ? ORDER BY attempt_number`, userID, puzzleID)
	if err != nil {
		return nil, storageErr("select guesses", err)
	}
	defer rows.Close()

	var out []models.GuessAttempt
	for rows.Next() {
		var a models.GuessAttempt
		var correct int
		var createdAt int64
		if err := rows.Scan(&a.UserID, &a.PuzzleID, &a.AttemptNumber, &a.Guess, &a.Normalized, &correct, &createdAt); err != nil {
			return nil, storageErr("scan guess", err)
		}
		a.Correct = correct == 1
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate guesses", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

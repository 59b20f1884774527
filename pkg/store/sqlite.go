package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists calculation history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ History = (*SQLiteStore)(nil)

// OpenSQLite creates or opens a SQLite database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a calculation.
func (s *SQLiteStore) Record(ctx context.Context, c *Calculation) (*Calculation, error) {
	stored := prepare(c)

	tokens, err := json.Marshal(nonNil(stored.Tokens))
	if err != nil {
		return nil, fmt.Errorf("marshal tokens: %w", err)
	}
	postfix, err := json.Marshal(nonNil(stored.Postfix))
	if err != nil {
		return nil, fmt.Errorf("marshal postfix: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations (id, expression, tokens, postfix, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.Expression, string(tokens), string(postfix),
		stored.Result, stored.Error, stored.CreateTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert calculation: %w", err)
	}
	return stored, nil
}

const selectColumns = `SELECT id, expression, tokens, postfix, result, error, created_at FROM calculations`

// Get retrieves a calculation by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Calculation, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	c, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns calculations newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Calculation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	var result []*Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}
	return result, nil
}

// Clear deletes all calculations.
func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations`)
	if err != nil {
		return 0, fmt.Errorf("clear calculations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear calculations: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (*Calculation, error) {
	var (
		c                        Calculation
		tokens, postfix, created string
	)
	if err := row.Scan(&c.ID, &c.Expression, &tokens, &postfix, &c.Result, &c.Error, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tokens), &c.Tokens); err != nil {
		return nil, fmt.Errorf("decode tokens of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(postfix), &c.Postfix); err != nil {
		return nil, fmt.Errorf("decode postfix of %s: %w", c.ID, err)
	}
	if len(c.Postfix) == 0 {
		c.Postfix = nil
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", c.ID, err)
	}
	c.CreateTime = t
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

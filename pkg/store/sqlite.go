package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formforge/pkg/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS forms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	body TEXT NOT NULL
)`

// SQLite stores each form as a JSON document row.
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// forms table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	s := &SQLite{DB: conn}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("store: migrate sqlite: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]model.FormConfig, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT body FROM forms ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var forms []model.FormConfig
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		form, err := decode([]byte(body))
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, id string) (model.FormConfig, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM forms WHERE id=?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FormConfig{}, model.ErrNotFound
	}
	if err != nil {
		return model.FormConfig{}, err
	}
	return decode([]byte(body))
}

func (s *SQLite) Put(ctx context.Context, form model.FormConfig) error {
	if err := requireID(form.ID); err != nil {
		return err
	}
	body, err := encode(form)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO forms(id,name,created_at,updated_at,body) VALUES (?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, created_at=excluded.created_at, updated_at=excluded.updated_at, body=excluded.body`,
		form.ID, form.Name, model.FormatTimestamp(form.CreatedAt), model.FormatTimestamp(form.UpdatedAt), string(body))
	return err
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM forms WHERE id=?`, id)
	return err
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.DB.Close()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eslsoft/untranslatable/internal/entity"
	repo "github.com/eslsoft/untranslatable/internal/repository"
)

var (
	_ repo.DocumentStore     = (*SQLiteStore)(nil)
	_ repo.SchemaInitializer = (*SQLiteStore)(nil)
)

// SQLiteStore keeps the dataset as one row of the documents table.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

func NewSQLiteStore(db *sql.DB, name string) *SQLiteStore {
	return &SQLiteStore{db: db, name: name}
}

func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		name       TEXT NOT NULL PRIMARY KEY,
		content    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context) (*entity.Dataset, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE name = ?`, s.name).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select document %q: %w", s.name, err)
	}
	return decodeDataset([]byte(content))
}

func (s *SQLiteStore) Write(ctx context.Context, dataset *entity.Dataset) error {
	content, err := encodeDataset(dataset)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO documents (name, content, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		s.name, string(content))
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", s.name, err)
	}
	return nil
}

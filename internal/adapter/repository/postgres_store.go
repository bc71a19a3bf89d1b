package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/untranslatable/internal/entity"
	repo "github.com/eslsoft/untranslatable/internal/repository"
)

var (
	_ repo.DocumentStore     = (*PostgresStore)(nil)
	_ repo.SchemaInitializer = (*PostgresStore)(nil)
)

// PostgresStore keeps the dataset as a jsonb row of the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

func NewPostgresStore(pool *pgxpool.Pool, name string) *PostgresStore {
	return &PostgresStore{pool: pool, name: name}
}

func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		content    JSONB NOT NULL DEFAULT '{"words": []}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context) (*entity.Dataset, error) {
	var content []byte
	err := s.pool.QueryRow(ctx, `SELECT content::text FROM documents WHERE name = $1`, s.name).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select document %q: %w", s.name, err)
	}
	return decodeDataset(content)
}

func (s *PostgresStore) Write(ctx context.Context, dataset *entity.Dataset) error {
	content, err := encodeDataset(dataset)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO documents (name, content, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		s.name, string(content))
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", s.name, err)
	}
	return nil
}

package repository

import (
	"context"

	"github.com/eslsoft/untranslatable/internal/entity"
)

// DocumentStore reads and writes the whole dataset as one document.
// Read returns (nil, nil) when the document exists but holds no data.
// Write overwrites the document wholesale; there is no merge or version check.
type DocumentStore interface {
	Read(ctx context.Context) (*entity.Dataset, error)
	Write(ctx context.Context, dataset *entity.Dataset) error
}

// SchemaInitializer is implemented by stores that need a table before first use.
type SchemaInitializer interface {
	InitSchema(ctx context.Context) error
}

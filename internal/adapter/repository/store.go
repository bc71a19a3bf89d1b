package repository

import (
	"fmt"
	"net/http"

	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
	"github.com/eslsoft/untranslatable/internal/infrastructure/database"
	repo "github.com/eslsoft/untranslatable/internal/repository"
)

// NewDocumentStore builds the store selected by store.driver.
// The returned cleanup releases any database handle.
func NewDocumentStore(cfg *config.Config) (repo.DocumentStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverGist, "":
		if cfg.Gist.ID == "" {
			return nil, nil, fmt.Errorf("gist driver requires gist.id (GIST_ID)")
		}
		client := &http.Client{Timeout: cfg.Store.Timeout}
		store, err := NewGistStore(client, cfg.Gist.BaseURL, cfg.Gist.ID, cfg.Gist.Token, cfg.Gist.Filename)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.DriverFile:
		return NewFileStore(cfg.File.Path), func() {}, nil
	case config.DriverSQLite:
		db, cleanup, err := database.OpenSQLite(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteStore(db, cfg.Database.Document), cleanup, nil
	case config.DriverPostgres:
		pool, cleanup, err := database.NewConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(pool, cfg.Database.Document), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

package store

import (
	"context"
	"fmt"

	"github.com/codescout-dev/codescout/config"
)

// NewFromConfig builds the vector store selected by the configuration.
// baseDir is the codescout state directory, used by the local backend.
func NewFromConfig(ctx context.Context, cfg *config.Config, baseDir string) (VectorStore, error) {
	switch cfg.Store.Backend {
	case "", "gob":
		return NewGOBStore(config.GetIndexPath(baseDir)), nil

	case "postgres":
		if cfg.Store.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires store.postgres.dsn")
		}
		return NewPostgresStore(ctx, cfg.Store.Postgres.DSN, cfg.Embedder.GetDimensions())

	case "qdrant":
		collection := cfg.Store.Qdrant.Collection
		if collection == "" {
			collection = "codescout"
		}
		host := cfg.Store.Qdrant.Endpoint
		if host == "" {
			host = "localhost"
		}
		return NewQdrantStore(ctx, QdrantConfig{
			Host:       host,
			Port:       cfg.Store.Qdrant.Port,
			Collection: collection,
			APIKey:     cfg.Store.Qdrant.APIKey,
			UseTLS:     cfg.Store.Qdrant.UseTLS,
			Dimensions: cfg.Embedder.GetDimensions(),
		})

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

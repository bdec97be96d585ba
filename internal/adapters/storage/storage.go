package storage

import (
	"context"

	"github.com/verdantai/verdant-agent/internal/adapters/storage/memory"
	"github.com/verdantai/verdant-agent/internal/adapters/storage/postgres"
	"github.com/verdantai/verdant-agent/internal/adapters/storage/sqlite"
	"github.com/verdantai/verdant-agent/internal/config"
	"github.com/verdantai/verdant-agent/internal/domain"
)

// Select returns the checkpointer implied by the configuration:
// a Postgres URI wins, then a SQLite path, then plain in-memory.
// All three satisfy the same save/load-by-thread-id contract.
func Select(ctx context.Context, cfg *config.Config) (domain.Checkpointer, error) {
	switch {
	case cfg.PostgresURI != "":
		return postgres.NewStore(ctx, cfg.PostgresURI)
	case cfg.SQLitePath != "":
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	default:
		return memory.NewStore(), nil
	}
}

package core

import (
	"context"
	"fmt"

	"carecensus/internal/infra/persistence/memory"
	"carecensus/internal/infra/persistence/postgres"
	"carecensus/internal/infra/persistence/sqlite"
	"carecensus/internal/platform/config"
	"carecensus/pkg/domain"
)

// OpenPopulationStore selects a backend from cfg.StorageDriver
// (memory, sqlite or postgres; sqlite when empty).
func OpenPopulationStore(ctx context.Context, cfg config.Config) (domain.PopulationStore, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return memory.NewStore(), nil
	case config.StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}

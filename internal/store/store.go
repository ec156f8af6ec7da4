// Package store implements the durable series store backends.
package store

import (
	"fmt"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/db"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/internal/store/migrations"
	"github.com/horizen-tools/poolscope/pkg/config"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

// New creates the configured series store backend. For the sqlite backend it
// runs migrations, opens the database and builds the maintenance
// coordinator; the returned coordinator is nil for the csv backend.
func New(cfg config.StoreConfig, genesis uint64, log *logger.Logger) (pkgstore.SeriesStore, *db.MaintenanceCoordinator, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		return NewCSVStore(cfg.CSVPath, genesis, log), nil, nil

	case config.BackendSQLite:
		if err := migrations.RunMigrations(cfg.DB.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		database, err := db.NewSQLiteDBFromConfig(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}

		maintenance := db.NewMaintenanceCoordinator(
			cfg.DB.Path,
			database,
			cfg.Maintenance,
			log.WithComponent(common.ComponentMaintenance),
		)

		return NewSQLiteStore(database, genesis, maintenance, log), maintenance, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/config"
)

// Maintenance coordinates database maintenance with regular store operations.
// Store operations hold the operation lock for their duration; maintenance
// waits for all of them to drain before checkpointing or vacuuming.
type Maintenance interface {
	AcquireOperationLock() func()
	Start(ctx context.Context)
}

// MaintenanceCoordinator implements Maintenance for a SQLite database.
type MaintenanceCoordinator struct {
	dbPath string
	db     *sql.DB
	cfg    *config.MaintenanceConfig
	log    *logger.Logger

	mu sync.RWMutex
}

// NewMaintenanceCoordinator creates a maintenance coordinator. A nil or
// disabled config yields a coordinator that only hands out operation locks.
func NewMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg *config.MaintenanceConfig,
	log *logger.Logger,
) *MaintenanceCoordinator {
	return &MaintenanceCoordinator{
		dbPath: dbPath,
		db:     db,
		cfg:    cfg,
		log:    log,
	}
}

// AcquireOperationLock blocks while maintenance is running and returns the
// unlock function. Concurrent store operations proceed in parallel.
func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.mu.RLock()
	return m.mu.RUnlock
}

// Start runs the maintenance loop until the context is cancelled.
// It returns immediately when maintenance is disabled.
func (m *MaintenanceCoordinator) Start(ctx context.Context) {
	if m.cfg == nil || !m.cfg.Enabled {
		m.log.Debug("database maintenance disabled")
		return
	}

	if m.cfg.VacuumOnStartup {
		if err := m.runMaintenance(); err != nil {
			m.log.Errorf("startup maintenance failed: %v", err)
		}
	}

	ticker := time.NewTicker(m.cfg.CheckInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("maintenance loop stopped")
			return
		case <-ticker.C:
			if err := m.runMaintenance(); err != nil {
				m.log.Errorf("maintenance run failed: %v", err)
			}
		}
	}
}

// runMaintenance checkpoints the WAL and vacuums the database while holding
// the write side of the operation lock.
func (m *MaintenanceCoordinator) runMaintenance() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()

	checkpoint := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.cfg.WALCheckpointMode)
	if _, err := m.db.Exec(checkpoint); err != nil {
		MaintenanceRunInc("failed")
		return fmt.Errorf("wal checkpoint failed: %w", err)
	}

	if _, err := m.db.Exec("VACUUM"); err != nil {
		MaintenanceRunInc("failed")
		return fmt.Errorf("vacuum failed: %w", err)
	}

	MaintenanceRunInc("ok")

	if info, err := os.Stat(m.dbPath); err == nil {
		DBSizeSet(uint64(info.Size()))
		m.log.Infof("maintenance completed in %v, db size %d MB",
			time.Since(start), common.BytesToMB(uint64(info.Size())))
	} else {
		m.log.Infof("maintenance completed in %v", time.Since(start))
	}

	return nil
}

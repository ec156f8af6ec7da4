package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/russross/meddler"
	"github.com/shopspring/decimal"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/db"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

// Compile-time check to ensure SQLiteStore implements pkgstore.SeriesStore interface.
var _ pkgstore.SeriesStore = (*SQLiteStore)(nil)

// seriesRow maps one pool_series row. Uses meddler tags for automatic
// struct-to-db mapping.
type seriesRow struct {
	Height uint64          `meddler:"height"`
	Value  decimal.Decimal `meddler:"value,decimal"`
}

// SQLiteStore persists the series in a SQLite table with the same contract
// as the CSV backend. Batch appends run in a single transaction.
type SQLiteStore struct {
	db          *sql.DB
	genesis     uint64
	maintenance db.Maintenance
	log         *logger.Logger
}

// NewSQLiteStore creates a SQLite-backed series store on an open database.
// maintenance may be nil.
func NewSQLiteStore(database *sql.DB, genesis uint64, maintenance db.Maintenance, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:          database,
		genesis:     genesis,
		maintenance: maintenance,
		log:         log.WithComponent(common.ComponentStore),
	}
}

// Load reads the entire persisted series, preserving order.
func (s *SQLiteStore) Load(ctx context.Context) (series.Series, error) {
	return s.load(ctx, 0)
}

// LoadFrom returns the persisted series truncated to entries at or after fromHeight.
func (s *SQLiteStore) LoadFrom(ctx context.Context, fromHeight uint64) (series.Series, error) {
	return s.load(ctx, fromHeight)
}

func (s *SQLiteStore) load(ctx context.Context, fromHeight uint64) (series.Series, error) {
	if s.maintenance != nil {
		unlock := s.maintenance.AcquireOperationLock()
		defer unlock()
	}

	var rows []*seriesRow
	err := meddler.QueryAll(s.db, &rows, `
		SELECT * FROM pool_series WHERE height >= ? ORDER BY height ASC
	`, fromHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgstore.ErrStoreCorrupt, err)
	}

	entries := make(series.Series, len(rows))
	for i, r := range rows {
		entries[i] = series.Entry{Height: r.Height, Value: r.Value}
	}

	return entries, nil
}

// LastHeight returns the highest persisted height, and false if the store is empty.
func (s *SQLiteStore) LastHeight(ctx context.Context) (uint64, bool, error) {
	if s.maintenance != nil {
		unlock := s.maintenance.AcquireOperationLock()
		defer unlock()
	}

	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(height) FROM pool_series`).Scan(&last)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query last height: %w", err)
	}

	if !last.Valid {
		return 0, false, nil
	}

	return uint64(last.Int64), true, nil
}

// AppendBatch appends entries in a single transaction, all-or-nothing.
func (s *SQLiteStore) AppendBatch(ctx context.Context, entries []series.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if s.maintenance != nil {
		unlock := s.maintenance.AcquireOperationLock()
		defer unlock()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	// Validate contiguity against the committed state inside the same
	// transaction that writes.
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(height) FROM pool_series`).Scan(&last); err != nil {
		return fmt.Errorf("failed to query last height: %w", err)
	}

	if err := validateAppend(uint64(last.Int64), last.Valid, s.genesis, entries); err != nil {
		return err
	}

	for _, e := range entries {
		row := &seriesRow{Height: e.Height, Value: e.Value}
		if err := meddler.Insert(tx, "pool_series", row); err != nil {
			return fmt.Errorf("failed to insert height %d: %w", e.Height, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	BatchCommitInc(len(entries))
	s.log.Debugf("appended %d entries, last height now %d", len(entries), entries[len(entries)-1].Height)

	return nil
}

// Rewrite replaces the entire table content in a single transaction.
func (s *SQLiteStore) Rewrite(ctx context.Context, entries []series.Entry) error {
	if err := validateSeries(s.genesis, entries); err != nil {
		return err
	}

	if s.maintenance != nil {
		unlock := s.maintenance.AcquireOperationLock()
		defer unlock()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pool_series`); err != nil {
		return fmt.Errorf("failed to clear series: %w", err)
	}

	for _, e := range entries {
		row := &seriesRow{Height: e.Height, Value: e.Value}
		if err := meddler.Insert(tx, "pool_series", row); err != nil {
			return fmt.Errorf("failed to insert height %d: %w", e.Height, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rewrite: %w", err)
	}

	s.log.Warnf("series table rewritten with %d entries", len(entries))

	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

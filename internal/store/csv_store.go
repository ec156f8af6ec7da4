package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

// Compile-time check to ensure CSVStore implements pkgstore.SeriesStore interface.
var _ pkgstore.SeriesStore = (*CSVStore)(nil)

// Column headers of the legacy CSV format. Readers must tolerate extra
// trailing columns; this store never writes any.
var csvHeader = []string{"BLOCK HEIGHT", "SHIELDED POOL VALUE"}

const minFields = 2

// CSVStore persists the series as a line-oriented CSV table, one
// (height, value) record per line, first record at the genesis height.
// Appends are fsynced and rolled back to the pre-batch offset on failure;
// rewrites go through a temp file and an atomic rename.
type CSVStore struct {
	path    string
	genesis uint64
	log     *logger.Logger

	mu      sync.Mutex
	last    uint64
	hasLast bool
	loaded  bool

	// syncFile flushes an open file to stable storage. Overridable so the
	// append rollback path can be exercised without a real disk fault.
	syncFile func(*os.File) error
}

// NewCSVStore creates a CSV-backed series store at the given path.
// The backing file is created lazily on the first append.
func NewCSVStore(path string, genesis uint64, log *logger.Logger) *CSVStore {
	return &CSVStore{
		path:    path,
		genesis: genesis,
		log:     log.WithComponent(common.ComponentStore),
	}
}

// Load reads the entire persisted series, preserving order.
func (s *CSVStore) Load(ctx context.Context) (series.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// LoadFrom returns the persisted series truncated to entries at or after fromHeight.
func (s *CSVStore) LoadFrom(ctx context.Context, fromHeight uint64) (series.Series, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return all.From(fromHeight), nil
}

// LastHeight returns the highest persisted height, and false if the store is empty.
func (s *CSVStore) LastHeight(ctx context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if _, err := s.loadLocked(); err != nil {
			return 0, false, err
		}
	}

	return s.last, s.hasLast, nil
}

// AppendBatch appends entries to the end of the file, all-or-nothing.
func (s *CSVStore) AppendBatch(ctx context.Context, entries []series.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if _, err := s.loadLocked(); err != nil {
			return err
		}
	}

	if err := validateAppend(s.last, s.hasLast, s.genesis, entries); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat series file: %w", err)
	}
	preSize := info.Size()

	var records [][]string
	if preSize == 0 {
		records = append(records, csvHeader)
	}
	for _, e := range entries {
		records = append(records, encodeRecord(e))
	}

	syncFile := s.syncFile
	if syncFile == nil {
		syncFile = (*os.File).Sync
	}

	w := csv.NewWriter(f)
	writeErr := w.WriteAll(records) // WriteAll flushes
	if writeErr == nil {
		writeErr = syncFile(f)
	}
	if writeErr != nil {
		// Roll back to the pre-batch state so no torn batch survives.
		if truncErr := f.Truncate(preSize); truncErr != nil {
			s.log.Errorf("failed to roll back partial append: %v", truncErr)
		} else if syncErr := f.Sync(); syncErr != nil {
			s.log.Errorf("failed to sync rolled back file: %v", syncErr)
		}
		return fmt.Errorf("failed to append batch: %w", writeErr)
	}

	s.last = entries[len(entries)-1].Height
	s.hasLast = true

	BatchCommitInc(len(entries))
	s.log.Debugf("appended %d entries, last height now %d", len(entries), s.last)

	return nil
}

// Rewrite replaces the entire store content via a temp file and atomic rename.
func (s *CSVStore) Rewrite(ctx context.Context, entries []series.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateSeries(s.genesis, entries); err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp series file: %w", err)
	}

	records := make([][]string, 0, len(entries)+1)
	records = append(records, csvHeader)
	for _, e := range entries {
		records = append(records, encodeRecord(e))
	}

	w := csv.NewWriter(f)
	writeErr := w.WriteAll(records)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp series file: %w", writeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace series file: %w", err)
	}

	s.loaded = true
	s.hasLast = len(entries) > 0
	if s.hasLast {
		s.last = entries[len(entries)-1].Height
	} else {
		s.last = 0
	}

	s.log.Warnf("series file rewritten with %d entries", len(entries))

	return nil
}

// Close implements pkgstore.SeriesStore. The CSV store holds no open handles
// between calls.
func (s *CSVStore) Close() error {
	return nil
}

// loadLocked reads the file and refreshes the cached last height.
// Must be called with s.mu held.
func (s *CSVStore) loadLocked() (series.Series, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.loaded = true
			s.hasLast = false
			return series.Series{}, nil
		}
		return nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, err
	}

	s.loaded = true
	s.hasLast = len(entries) > 0
	if s.hasLast {
		s.last = entries[len(entries)-1].Height
	}

	return entries, nil
}

// ReadEntries parses series entries from CSV data. The header line is
// optional; extra trailing fields are ignored for forward compatibility.
func ReadEntries(r io.Reader) (series.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries series.Series
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", pkgstore.ErrStoreCorrupt, line, err)
		}

		if line == 1 && len(record) > 0 && record[0] == csvHeader[0] {
			continue
		}

		if len(record) < minFields {
			return nil, fmt.Errorf("%w: line %d: expected at least %d fields, got %d",
				pkgstore.ErrStoreCorrupt, line, minFields, len(record))
		}

		height, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: non-numeric height %q",
				pkgstore.ErrStoreCorrupt, line, record[0])
		}

		value, err := decimal.NewFromString(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: non-numeric value %q",
				pkgstore.ErrStoreCorrupt, line, record[1])
		}

		entries = append(entries, series.Entry{Height: height, Value: value})
	}

	return entries, nil
}

// WriteEntries renders series entries as CSV with the standard header.
func WriteEntries(w io.Writer, entries series.Series) error {
	records := make([][]string, 0, len(entries)+1)
	records = append(records, csvHeader)
	for _, e := range entries {
		records = append(records, encodeRecord(e))
	}

	cw := csv.NewWriter(w)
	return cw.WriteAll(records)
}

// encodeRecord renders one entry as a CSV record.
func encodeRecord(e series.Entry) []string {
	return []string{strconv.FormatUint(e.Height, 10), e.Value.String()}
}

package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

const testGenesis = uint64(1)

func entry(height uint64, value string) series.Entry {
	return series.Entry{Height: height, Value: decimal.RequireFromString(value)}
}

func newTestCSVStore(t *testing.T) (*CSVStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "series.csv")
	return NewCSVStore(path, testGenesis, logger.NewNopLogger()), path
}

func requireSeriesEqual(t *testing.T, expected, actual series.Series) {
	t.Helper()

	require.Len(t, actual, len(expected))
	for i := range expected {
		require.Equal(t, expected[i].Height, actual[i].Height)
		require.True(t, expected[i].Value.Equal(actual[i].Value),
			"value mismatch at height %d: expected %s, got %s",
			expected[i].Height, expected[i].Value, actual[i].Value)
	}
}

func TestCSVStore_LoadMissingFile(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)
	ctx := context.Background()

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, hasLast, err := store.LastHeight(ctx)
	require.NoError(t, err)
	require.False(t, hasLast)
}

func TestCSVStore_AppendAndReload(t *testing.T) {
	t.Parallel()

	store, path := newTestCSVStore(t)
	ctx := context.Background()

	batch := series.Series{
		entry(1, "0"),
		entry(2, "7.000025"),
		entry(3, "7.000025"),
	}
	require.NoError(t, store.AppendBatch(ctx, batch))

	last, hasLast, err := store.LastHeight(ctx)
	require.NoError(t, err)
	require.True(t, hasLast)
	require.Equal(t, uint64(3), last)

	// A fresh store instance reads the same series back from disk.
	reloaded := NewCSVStore(path, testGenesis, logger.NewNopLogger())
	entries, err := reloaded.Load(ctx)
	require.NoError(t, err)
	requireSeriesEqual(t, batch, entries)

	// The file carries the header line exactly once.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "BLOCK HEIGHT,SHIELDED POOL VALUE"))
}

func TestCSVStore_AppendMultipleBatches(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatch(ctx, series.Series{entry(1, "0"), entry(2, "1")}))
	require.NoError(t, store.AppendBatch(ctx, series.Series{entry(3, "2"), entry(4, "3")}))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, uint64(4), entries[3].Height)
}

func TestCSVStore_AppendEmptyBatch(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)
	require.NoError(t, store.AppendBatch(context.Background(), nil))
}

func TestCSVStore_SequenceViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing series.Series
		batch    series.Series
		expected uint64
		got      uint64
	}{
		{
			name:     "first batch must start at genesis",
			batch:    series.Series{entry(5, "0")},
			expected: 1,
			got:      5,
		},
		{
			name:     "batch must follow last height",
			existing: series.Series{entry(1, "0"), entry(2, "1")},
			batch:    series.Series{entry(4, "2")},
			expected: 3,
			got:      4,
		},
		{
			name:     "batch must be internally contiguous",
			existing: series.Series{entry(1, "0")},
			batch:    series.Series{entry(2, "1"), entry(2, "1")},
			expected: 3,
			got:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, _ := newTestCSVStore(t)
			ctx := context.Background()

			if len(tt.existing) > 0 {
				require.NoError(t, store.AppendBatch(ctx, tt.existing))
			}

			err := store.AppendBatch(ctx, tt.batch)
			require.Error(t, err)
			require.True(t, pkgstore.IsSequenceViolation(err))

			var sv *pkgstore.SequenceViolationError
			require.ErrorAs(t, err, &sv)
			require.Equal(t, tt.expected, sv.Expected)
			require.Equal(t, tt.got, sv.Got)

			// The store is unchanged after the rejected batch.
			entries, loadErr := store.Load(ctx)
			require.NoError(t, loadErr)
			requireSeriesEqual(t, tt.existing, entries)
		})
	}
}

func TestCSVStore_CorruptData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "non-numeric height",
			content: "BLOCK HEIGHT,SHIELDED POOL VALUE\nabc,0\n",
		},
		{
			name:    "non-numeric value",
			content: "BLOCK HEIGHT,SHIELDED POOL VALUE\n1,not-a-number\n",
		},
		{
			name:    "too few fields",
			content: "BLOCK HEIGHT,SHIELDED POOL VALUE\n1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "series.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			store := NewCSVStore(path, testGenesis, logger.NewNopLogger())
			_, err := store.Load(context.Background())
			require.Error(t, err)
			require.ErrorIs(t, err, pkgstore.ErrStoreCorrupt)
		})
	}
}

func TestCSVStore_ToleratesLegacyVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "extra trailing columns are ignored",
			content: "BLOCK HEIGHT,SHIELDED POOL VALUE\n1,0,extra\n2,5,extra\n",
		},
		{
			name:    "header is optional",
			content: "1,0\n2,5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "series.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			store := NewCSVStore(path, testGenesis, logger.NewNopLogger())
			entries, err := store.Load(context.Background())
			require.NoError(t, err)
			requireSeriesEqual(t, series.Series{entry(1, "0"), entry(2, "5")}, entries)
		})
	}
}

func TestCSVStore_LoadFrom(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatch(ctx, series.Series{
		entry(1, "0"), entry(2, "1"), entry(3, "2"), entry(4, "3"),
	}))

	entries, err := store.LoadFrom(ctx, 3)
	require.NoError(t, err)
	requireSeriesEqual(t, series.Series{entry(3, "2"), entry(4, "3")}, entries)

	entries, err = store.LoadFrom(ctx, 100)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCSVStore_AppendRollsBackOnSyncFailure(t *testing.T) {
	t.Parallel()

	store, path := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatch(ctx, series.Series{
		entry(1, "0"), entry(2, "7.000025"),
	}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	store.syncFile = func(*os.File) error { return errors.New("disk full") }

	err = store.AppendBatch(ctx, series.Series{entry(3, "8"), entry(4, "9")})
	require.Error(t, err)

	// The torn batch was truncated away: the file is byte-identical to the
	// pre-batch state and the cached last height did not move.
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)

	last, hasLast, err := store.LastHeight(ctx)
	require.NoError(t, err)
	require.True(t, hasLast)
	require.Equal(t, uint64(2), last)

	// With the fault cleared the same batch appends cleanly.
	store.syncFile = nil
	require.NoError(t, store.AppendBatch(ctx, series.Series{entry(3, "8"), entry(4, "9")}))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	requireSeriesEqual(t, series.Series{
		entry(1, "0"), entry(2, "7.000025"), entry(3, "8"), entry(4, "9"),
	}, entries)
}

func TestCSVStore_Rewrite(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatch(ctx, series.Series{
		entry(1, "0"), entry(2, "1"), entry(3, "2"),
	}))

	truncated := series.Series{entry(1, "0"), entry(2, "1")}
	require.NoError(t, store.Rewrite(ctx, truncated))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	requireSeriesEqual(t, truncated, entries)

	// Appends continue from the rewritten state.
	require.NoError(t, store.AppendBatch(ctx, series.Series{entry(3, "9")}))

	last, hasLast, err := store.LastHeight(ctx)
	require.NoError(t, err)
	require.True(t, hasLast)
	require.Equal(t, uint64(3), last)
}

func TestCSVStore_RewriteRequiresGenesisAnchor(t *testing.T) {
	t.Parallel()

	store, _ := newTestCSVStore(t)

	err := store.Rewrite(context.Background(), series.Series{entry(5, "0")})
	require.Error(t, err)
	require.True(t, pkgstore.IsSequenceViolation(err))
}

func TestWriteEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteEntries(&buf, series.Series{entry(1, "0"), entry(2, "7.000025")})
	require.NoError(t, err)

	require.Equal(t,
		"BLOCK HEIGHT,SHIELDED POOL VALUE\n1,0\n2,7.000025\n",
		buf.String(),
	)

	// WriteEntries output parses back to the same series.
	parsed, err := ReadEntries(&buf)
	require.NoError(t, err)
	requireSeriesEqual(t, series.Series{entry(1, "0"), entry(2, "7.000025")}, parsed)
}

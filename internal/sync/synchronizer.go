// Package sync implements the synchronization engine that brings the series
// store up to date with the chain.
package sync

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/internal/metrics"
	"github.com/horizen-tools/poolscope/pkg/config"
	pkgrpc "github.com/horizen-tools/poolscope/pkg/rpc"
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
	pkgsync "github.com/horizen-tools/poolscope/pkg/sync"
)

// Compile-time check to ensure Synchronizer implements pkgsync.Synchronizer interface.
var _ pkgsync.Synchronizer = (*Synchronizer)(nil)

// Synchronizer extends the persisted series to the chain tip using the
// minimum necessary RPC calls. Heights inside a chunk are fetched with a
// bounded window of in-flight requests; commit order stays strictly
// ascending because only the contiguous prefix of a chunk is ever appended.
type Synchronizer struct {
	cfg   config.SyncConfig
	rpc   pkgrpc.NodeClient
	store pkgstore.SeriesStore
	log   *logger.Logger
}

// New creates a new Synchronizer instance.
func New(
	cfg config.SyncConfig,
	rpcClient pkgrpc.NodeClient,
	seriesStore pkgstore.SeriesStore,
	log *logger.Logger,
) (*Synchronizer, error) {
	if rpcClient == nil {
		return nil, errors.New("RPC client is required")
	}
	if seriesStore == nil {
		return nil, errors.New("series store is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	return &Synchronizer{
		cfg:   cfg,
		rpc:   rpcClient,
		store: seriesStore,
		log:   log.WithComponent(common.ComponentSynchronizer),
	}, nil
}

// Run performs one sync pass. Structural store failures are returned as
// errors; RPC outcomes are encoded in the Result per its Status.
func (s *Synchronizer) Run(ctx context.Context) (*pkgsync.Result, error) {
	last, hasLast, err := s.store.LastHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store state: %w", err)
	}

	chainHeight, err := s.rpc.CurrentHeight(ctx)
	if err != nil {
		// The only top-level failure that aborts with zero side effects.
		s.log.Errorw("chain tip unavailable", "error", err)
		SyncRunInc(string(pkgsync.StatusUnavailable))
		metrics.ErrorsInc(common.ComponentRPC, "error")
		metrics.ComponentHealthSet(common.ComponentRPC, false)
		return &pkgsync.Result{
			Status:      pkgsync.StatusUnavailable,
			FinalHeight: last,
			HasFinal:    hasLast,
			Cause:       err,
		}, nil
	}

	metrics.ComponentHealthSet(common.ComponentRPC, true)

	next := s.cfg.GenesisHeight
	if hasLast {
		if last >= chainHeight {
			s.log.Infow("store already current",
				"last_height", last,
				"chain_height", chainHeight,
			)
			SyncRunInc(string(pkgsync.StatusComplete))
			return &pkgsync.Result{
				Status:      pkgsync.StatusComplete,
				NewEntries:  0,
				FinalHeight: last,
				HasFinal:    true,
			}, nil
		}
		next = last + 1
	}

	s.log.Infow("starting sync run",
		"from_height", next,
		"chain_height", chainHeight,
		"missing", chainHeight-next+1,
	)

	fetched := 0
	committed := last
	hasCommitted := hasLast
	progressMark := uint64(0)

	for from := next; from <= chainHeight; {
		to := min(from+s.cfg.ChunkSize-1, chainHeight)

		entries, failedHeight, fetchErr := s.fetchRange(ctx, from, to)

		if len(entries) > 0 {
			if err := s.store.AppendBatch(ctx, entries); err != nil {
				metrics.ErrorsInc(common.ComponentStore, "error")
				return nil, fmt.Errorf("failed to commit batch [%d..%d]: %w",
					entries[0].Height, entries[len(entries)-1].Height, err)
			}

			fetched += len(entries)
			committed = entries[len(entries)-1].Height
			hasCommitted = true
			HeightsFetchedAdd(len(entries))
			LastSyncedHeightSet(committed)

			if s.cfg.ProgressEvery > 0 && chainHeight > 0 {
				if mark := uint64(fetched) / s.cfg.ProgressEvery; mark != progressMark {
					progressMark = mark
					s.log.Infof("processing height %d/%d [%d%%]",
						committed, chainHeight, committed*100/chainHeight)
				}
			}
		}

		if fetchErr != nil {
			s.log.Warnw("sync run stopped early",
				"failed_height", failedHeight,
				"committed_height", committed,
				"new_entries", fetched,
				"error", fetchErr,
			)
			SyncRunInc(string(pkgsync.StatusPartial))
			metrics.ErrorsInc(common.ComponentSynchronizer, "warning")
			return &pkgsync.Result{
				Status:       pkgsync.StatusPartial,
				NewEntries:   fetched,
				FinalHeight:  committed,
				HasFinal:     hasCommitted,
				FailedHeight: failedHeight,
				Cause:        fetchErr,
			}, nil
		}

		from = to + 1
	}

	s.log.Infow("sync run complete",
		"new_entries", fetched,
		"final_height", chainHeight,
	)
	SyncRunInc(string(pkgsync.StatusComplete))

	return &pkgsync.Result{
		Status:      pkgsync.StatusComplete,
		NewEntries:  fetched,
		FinalHeight: chainHeight,
		HasFinal:    true,
	}, nil
}

// fetchRange fetches pool values for [from, to] with a bounded window of
// concurrent requests. It returns the contiguous prefix of successfully
// fetched entries; on failure it also returns the first failing height and
// its error. Heights beyond the first failure are never returned, so commit
// order is preserved even when completions arrive out of order.
func (s *Synchronizer) fetchRange(ctx context.Context, from, to uint64) (series.Series, uint64, error) {
	n := int(to - from + 1)
	entries := make(series.Series, n)
	errs := make([]error, n)

	window := s.cfg.FetchWindow
	if window <= 0 {
		window = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(window)

	for i := 0; i < n; i++ {
		height := from + uint64(i)
		g.Go(func() error {
			value, err := s.rpc.PoolValueAt(gctx, height)
			if err != nil {
				errs[i] = err
				// Do not abort the group: siblings already in flight
				// may still complete a longer contiguous prefix.
				return nil
			}
			entries[i] = series.Entry{Height: height, Value: value}
			return nil
		})
	}

	// Workers never return errors through the group.
	_ = g.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			return entries[:i], from + uint64(i), errs[i]
		}
	}

	return entries, 0, nil
}

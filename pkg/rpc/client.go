// Package rpc defines the contract consumed from the blockchain node.
package rpc

import (
	"context"

	"github.com/shopspring/decimal"
)

// NodeClient exposes the two node operations the synchronizer depends on.
// Implementations retry transient transport failures internally; an error
// returned from either method means retries were exhausted or the failure
// is not retryable (bad credentials, invalid height).
type NodeClient interface {
	// CurrentHeight returns the height of the chain tip.
	CurrentHeight(ctx context.Context) (uint64, error)

	// PoolValueAt returns the total shielded pool value at the given height.
	PoolValueAt(ctx context.Context, height uint64) (decimal.Decimal, error)

	// Close releases the underlying transport.
	Close()
}

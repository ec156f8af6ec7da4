package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/config"
	pkgrpc "github.com/horizen-tools/poolscope/pkg/rpc"
)

// Compile-time check to ensure Client implements pkgrpc.NodeClient interface.
var _ pkgrpc.NodeClient = (*Client)(nil)

const (
	methodGetBlockCount = "getblockcount"
	methodGetBlock      = "getblock"

	// sproutPool is the index of the shielded pool in the getblock
	// valuePools array.
	sproutPool = 0
)

// Client talks to a Zend-style node over JSON-RPC 1.0 with HTTP basic auth.
// It implements the pkgrpc.NodeClient interface, retrying transient
// transport failures with exponential backoff.
type Client struct {
	endpoint string
	username string
	password string
	httpc    *http.Client
	retry    *config.RetryConfig
	log      *logger.Logger
}

// NewClient creates a new RPC client for the given node configuration.
func NewClient(cfg config.NodeConfig, log *logger.Logger) *Client {
	return &Client{
		endpoint: cfg.RPCURL,
		username: cfg.Username,
		password: cfg.Password,
		httpc: &http.Client{
			Timeout: cfg.Timeout.Duration,
		},
		retry: cfg.Retry,
		log:   log.WithComponent(common.ComponentRPC),
	}
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// CurrentHeight returns the height of the chain tip via getblockcount.
func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64

	err := retryWithBackoff(ctx, c.retry, methodGetBlockCount, func() error {
		raw, err := c.call(ctx, methodGetBlockCount, nil)
		if err != nil {
			return err
		}

		var count json.Number
		if err := json.Unmarshal(raw, &count); err != nil {
			return &RPCError{Code: 0, Message: fmt.Sprintf("unexpected getblockcount result: %v", err)}
		}

		h, err := strconv.ParseUint(count.String(), 10, 64)
		if err != nil {
			return &RPCError{Code: 0, Message: fmt.Sprintf("non-integer block count %q", count.String())}
		}

		height = h
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("getblockcount failed: %w", err)
	}

	return height, nil
}

// blockResult is the subset of the getblock response we consume.
type blockResult struct {
	ValuePools []struct {
		ID         string          `json:"id"`
		ChainValue decimal.Decimal `json:"chainValue"`
	} `json:"valuePools"`
}

// PoolValueAt returns the total shielded pool value at the given height via
// getblock.
func (c *Client) PoolValueAt(ctx context.Context, height uint64) (decimal.Decimal, error) {
	var value decimal.Decimal

	err := retryWithBackoff(ctx, c.retry, methodGetBlock, func() error {
		raw, err := c.call(ctx, methodGetBlock, []any{strconv.FormatUint(height, 10)})
		if err != nil {
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) &&
				(rpcErr.Code == codeInvalidParameter || rpcErr.Code == codeBlockNotFound) {
				return &InvalidHeightError{Height: height, Cause: rpcErr}
			}
			return err
		}

		var block blockResult
		if err := json.Unmarshal(raw, &block); err != nil {
			return &RPCError{Code: 0, Message: fmt.Sprintf("unexpected getblock result: %v", err)}
		}
		if len(block.ValuePools) <= sproutPool {
			return &RPCError{Code: 0, Message: fmt.Sprintf("getblock result for height %d has no value pools", height)}
		}

		value = block.ValuePools[sproutPool].ChainValue
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("getblock(%d) failed: %w", height, err)
	}

	return value, nil
}

// rpcRequest is the JSON-RPC 1.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcResponse is the JSON-RPC 1.0 response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// call performs one JSON-RPC request and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	RPCMethodInc(method)
	start := time.Now()
	defer func() {
		RPCMethodDuration(method, time.Since(start))
	}()

	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "1.0",
		ID:      "poolscope",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		RPCMethodError(method, "transport")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		RPCMethodError(method, "auth")
		return nil, &AuthError{Status: resp.StatusCode}
	}

	// The node returns error details in the JSON body even on non-200
	// statuses, so decode the envelope first.
	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		RPCMethodError(method, "protocol")
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Error != nil {
		RPCMethodError(method, "rpc")
		return nil, envelope.Error
	}

	return envelope.Result, nil
}

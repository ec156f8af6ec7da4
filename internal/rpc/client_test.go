package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/config"
)

func testRetryConfig() *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	client := NewClient(config.NodeConfig{
		RPCURL:   url,
		Username: "user",
		Password: "pass",
		Timeout:  common.NewDuration(5 * time.Second),
		Retry:    testRetryConfig(),
	}, logger.NewNopLogger())
	t.Cleanup(client.Close)

	return client
}

func TestClient_CurrentHeight(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "user", username)
		require.Equal(t, "pass", password)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getblockcount", req["method"])
		require.Equal(t, "1.0", req["jsonrpc"])

		w.Write([]byte(`{"result": 1234567, "error": null, "id": "poolscope"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	height, err := client.CurrentHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1234567), height)
}

func TestClient_PoolValueAt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getblock", req.Method)
		require.Equal(t, []any{"42"}, req.Params)

		w.Write([]byte(`{
			"result": {
				"hash": "0000abcd",
				"height": 42,
				"valuePools": [
					{"id": "sprout", "chainValue": 7.00002575}
				]
			},
			"error": null,
			"id": "poolscope"
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	value, err := client.PoolValueAt(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "7.00002575", value.String())
}

func TestClient_PoolValueAt_InvalidHeight(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"result": null, "error": {"code": -8, "message": "Block height out of range"}, "id": "poolscope"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.PoolValueAt(context.Background(), 999999999)
	require.Error(t, err)
	require.True(t, IsInvalidHeight(err))

	// Invalid heights are final, no retries.
	require.Equal(t, int32(1), requests.Load())
}

func TestClient_AuthFailure(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CurrentHeight(context.Background())
	require.Error(t, err)
	require.True(t, IsAuthError(err))
	require.Equal(t, int32(1), requests.Load())
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result": 55, "error": null, "id": "poolscope"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	height, err := client.CurrentHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(55), height)
	require.Equal(t, int32(3), requests.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CurrentHeight(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(3), requests.Load())
}

func TestClient_NodeDown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CurrentHeight(context.Background())
	require.Error(t, err)
}

func TestClient_MalformedResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{
			name: "non-numeric block count",
			body: `{"result": "not-a-number", "error": null, "id": "poolscope"}`,
			call: func(c *Client) error {
				_, err := c.CurrentHeight(context.Background())
				return err
			},
		},
		{
			name: "getblock without value pools",
			body: `{"result": {"height": 1, "valuePools": []}, "error": null, "id": "poolscope"}`,
			call: func(c *Client) error {
				_, err := c.PoolValueAt(context.Background(), 1)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			require.Error(t, tt.call(client))
		})
	}
}

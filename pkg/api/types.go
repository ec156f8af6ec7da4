package api

import "time"

// SeriesPoint is a single (height, value) observation. Values are decimal
// strings to avoid float truncation in JSON consumers.
type SeriesPoint struct {
	Height uint64 `json:"height"`
	Value  string `json:"value"`
}

// SeriesResponse represents a slice of the series with pagination info.
type SeriesResponse struct {
	Points     []SeriesPoint    `json:"points"`
	Pagination PaginationResult `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// StatusResponse reports how far the store lags behind the chain tip.
type StatusResponse struct {
	NodeReachable bool      `json:"node_reachable"`
	ChainHeight   *uint64   `json:"chain_height,omitempty"`
	StoredHeight  *uint64   `json:"stored_height,omitempty"`
	Lag           *uint64   `json:"lag,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// VerifyWarning is a soft finding reported alongside a valid series.
type VerifyWarning struct {
	Height        uint64 `json:"height"`
	PreviousValue string `json:"previous_value"`
	Value         string `json:"value"`
	Drop          string `json:"drop"`
}

// VerifyResponse represents the outcome of a series verification.
type VerifyResponse struct {
	Valid    bool            `json:"valid"`
	AtHeight uint64          `json:"at_height,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Entries  int             `json:"entries"`
	Warnings []VerifyWarning `json:"warnings,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastHeight *uint64   `json:"last_height,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/internal/metrics"
	"github.com/horizen-tools/poolscope/internal/verify"
	pkgrpc "github.com/horizen-tools/poolscope/pkg/rpc"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

const (
	defaultLimit = 1000
	maxLimit     = 100000
)

// Handler handles HTTP requests for the API.
type Handler struct {
	store    pkgstore.SeriesStore
	verifier *verify.Verifier
	rpc      pkgrpc.NodeClient
	log      *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(store pkgstore.SeriesStore, verifier *verify.Verifier, rpcClient pkgrpc.NodeClient, log *logger.Logger) *Handler {
	return &Handler{
		store:    store,
		verifier: verifier,
		rpc:      rpcClient,
		log:      log,
	}
}

// GetSeries returns a slice of the pool value series.
// @Summary Get the pool value series
// @Description Retrieve (height, value) points of the shielded pool series with optional range filtering and pagination
// @Tags Series
// @Produce json
// @Param from_height query integer false "Return points at or above this height"
// @Param limit query int false "Maximum number of points to return, 0 for all" default(1000)
// @Param offset query int false "Number of points to skip" default(0)
// @Success 200 {object} SeriesResponse "Series points with pagination info"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /series [get]
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	fromHeight, limit, offset, err := parseSeriesParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	entries, err := h.store.LoadFrom(r.Context(), fromHeight)
	if err != nil {
		h.log.Errorf("Failed to load series: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load series")
		return
	}

	total := len(entries)
	if offset > total {
		offset = total
	}
	page := entries[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}

	points := make([]SeriesPoint, 0, len(page))
	for _, e := range page {
		points = append(points, SeriesPoint{
			Height: e.Height,
			Value:  e.Value.String(),
		})
	}

	response := SeriesResponse{
		Points: points,
		Pagination: PaginationResult{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(page) < total,
		},
	}

	respondJSON(w, http.StatusOK, response)
}

// GetStatus reports the stored height against the current chain tip.
// @Summary Get sync status
// @Description Report the last stored height, the current chain height and the lag between them
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse "Sync status"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{Timestamp: time.Now()}

	last, hasLast, err := h.store.LastHeight(r.Context())
	if err != nil {
		h.log.Errorf("Failed to read store state: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to read store state")
		return
	}
	if hasLast {
		response.StoredHeight = &last
	}

	// An unreachable node degrades the response instead of failing it;
	// chart consumers still need the stored height.
	chainHeight, err := h.rpc.CurrentHeight(r.Context())
	if err != nil {
		h.log.Warnf("Chain tip unavailable: %v", err)
	} else {
		response.NodeReachable = true
		response.ChainHeight = &chainHeight

		var lag uint64
		if hasLast && chainHeight > last {
			lag = chainHeight - last
		} else if !hasLast {
			lag = chainHeight
		}
		response.Lag = &lag
	}

	respondJSON(w, http.StatusOK, response)
}

// VerifySeries runs the series verifier against the full persisted series.
// @Summary Verify the series
// @Description Check the persisted series for height gaps, duplicates and negative values
// @Tags Verify
// @Produce json
// @Success 200 {object} VerifyResponse "Verification outcome"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /verify [get]
func (h *Handler) VerifySeries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Load(r.Context())
	if err != nil {
		h.log.Errorf("Failed to load series: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load series")
		return
	}

	result := h.verifier.Verify(entries)

	response := VerifyResponse{
		Valid:   result.Valid,
		Entries: len(entries),
	}
	if !result.Valid {
		response.AtHeight = result.AtHeight
		response.Reason = string(result.Reason)
	}
	for _, warning := range result.Warnings {
		response.Warnings = append(response.Warnings, VerifyWarning{
			Height:        warning.Height,
			PreviousValue: warning.Previous.String(),
			Value:         warning.Value.String(),
			Drop:          warning.Drop.String(),
		})
	}

	respondJSON(w, http.StatusOK, response)
}

// Health returns the health status of the API.
// @Summary Health check
// @Description Check the health status of the API and the series store
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "API health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	}

	last, hasLast, err := h.store.LastHeight(r.Context())
	if err != nil {
		response.Status = "degraded"
	} else if hasLast {
		response.LastHeight = &last
	}
	metrics.ComponentHealthSet(common.ComponentStore, err == nil)

	respondJSON(w, http.StatusOK, response)
}

// parseSeriesParams parses the series query parameters.
func parseSeriesParams(r *http.Request) (fromHeight uint64, limit, offset int, err error) {
	limit = defaultLimit

	if fromStr := r.URL.Query().Get("from_height"); fromStr != "" {
		fromHeight, err = strconv.ParseUint(fromStr, 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid from_height")
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 || limit > maxLimit {
			return 0, 0, 0, fmt.Errorf("invalid limit: must be between 0 and %d", maxLimit)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, 0, fmt.Errorf("invalid offset: must be non-negative")
		}
	}

	return fromHeight, limit, offset, nil
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	if _, err := w.Write(encoded); err != nil {
		// Headers already sent, nothing left to do
		return
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}

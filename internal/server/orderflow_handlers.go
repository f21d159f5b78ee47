package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"orderflow-lab/internal/binance"
	"orderflow-lab/internal/ingest"
	"orderflow-lab/internal/observability"
	"orderflow-lab/internal/orderflow"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends a structured error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// handleOrderFlow computes a directional volume summary for a symbol over
// a window. GET /api/v1/orderflow?symbol=BTCUSDT&window=60
func (s *Server) handleOrderFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := r.URL.Query().Get("symbol")
	if err := ingest.ValidateSymbol(symbol); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_symbol", err.Error())
		return
	}

	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window", "window must be an integer number of seconds")
			return
		}
		window = n
	}
	window = ingest.ClampWindow(window)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, symbol, window)
		if err != nil {
			s.logger.Printf("summary cache read failed: %v", err)
		}
		observability.RecordCacheHit(cached != nil)
		if cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	start := time.Now()
	trades, partial, err := s.source.FetchRecent(ctx, symbol)
	if err != nil {
		observability.RecordUpstreamError(s.source.Exchange())
		status := http.StatusBadGateway
		var upstream *binance.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.Printf("upstream fetch failed for %s: status %d", symbol, upstream.Status)
		} else {
			s.logger.Printf("upstream fetch failed for %s: %v", symbol, err)
		}
		writeError(w, status, "upstream_unavailable", err.Error())
		return
	}
	observability.RecordFetch(len(trades), partial, time.Since(start).Seconds())

	summary := orderflow.Aggregate(trades, symbol, s.source.Exchange(), window, time.Now())
	summary.PartialCoverage = partial
	observability.RecordSummaryComputed(symbol)

	if s.cache != nil {
		if err := s.cache.Set(ctx, &summary); err != nil {
			s.logger.Printf("summary cache write failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, &summary)
}

// handleFlowHistory serves archived snapshots newest first.
// GET /api/v1/orderflow/history?symbol=BTCUSDT&limit=50
func (s *Server) handleFlowHistory(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "archive_disabled", "flow snapshot archive is not configured")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if err := ingest.ValidateSymbol(symbol); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_symbol", err.Error())
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	snaps, err := s.snapshots.RecentBySymbol(r.Context(), symbol, limit)
	if err != nil {
		s.logger.Printf("snapshot archive query failed for %s: %v", symbol, err)
		writeError(w, http.StatusInternalServerError, "storage_failure", "failed to read snapshot archive")
		return
	}

	writeJSON(w, http.StatusOK, snaps)
}

// parseLimit reads the optional limit query parameter. Writes a 400 and
// returns false on a malformed value; clamping happens at the store.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return 0, false
	}
	return n, true
}

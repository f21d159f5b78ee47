package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderflow-lab/internal/domain"
	"orderflow-lab/internal/walls"
)

// handleRecordWall accepts a wall detection for recording.
// POST /api/v1/whale-walls
func (s *Server) handleRecordWall(w http.ResponseWriter, r *http.Request) {
	var detection walls.Detection
	if err := json.NewDecoder(r.Body).Decode(&detection); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON wall detection")
		return
	}

	result, err := s.recorder.Record(r.Context(), detection)
	if err != nil {
		var verr *walls.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "invalid_detection", verr.Error())
			return
		}
		s.logger.Printf("wall record failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage_failure", "failed to record wall event")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListWalls serves stored events newest first.
// GET /api/v1/whale-walls?symbol=BTCUSDT&limit=50
func (s *Server) handleListWalls(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	events, err := s.recorder.Recent(r.Context(), symbol, limit)
	if err != nil {
		var verr *walls.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "invalid_symbol", verr.Error())
			return
		}
		s.logger.Printf("wall query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage_failure", "failed to query wall events")
		return
	}

	// Empty result is success, distinct from failure: an empty JSON array.
	if events == nil {
		events = []*domain.WhaleWallEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleClearWalls bulk-deletes all events for a symbol.
// DELETE /api/v1/whale-walls?symbol=BTCUSDT
func (s *Server) handleClearWalls(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	deleted, err := s.recorder.Clear(r.Context(), symbol)
	if err != nil {
		var verr *walls.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "invalid_symbol", verr.Error())
			return
		}
		s.logger.Printf("wall clear failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage_failure", "failed to clear wall events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

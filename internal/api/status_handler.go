// File path: internal/api/status_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/docflow-io/docflow/internal/common"
)

type categorizeRequest struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

// handleCategorize runs the pipeline synchronously for one file, the
// "process this file now" path that bypasses webhook delivery.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file_id required"))
		return
	}
	result, routed := s.pipeline.ProcessFile(r.Context(), req.FileID, req.FileName)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"result":  result,
		"routing": routed,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("audit catalog disabled"))
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	if fileID := r.URL.Query().Get("file_id"); fileID != "" {
		entries, err := s.audit.ByFile(r.Context(), fileID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
		return
	}
	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"queue_size":        s.queue.Size(),
		"queue_capacity":    s.queue.Capacity(),
		"processor_running": s.processor.Running(),
		"review_pending":    len(s.reviews.Items()),
	}
	if s.monitor != nil {
		status["webhooks"] = s.monitor.Health()
	}
	if s.audit != nil {
		if n, err := s.audit.Count(r.Context()); err == nil {
			status["processed_total"] = n
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	if component := r.URL.Query().Get("component"); component != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.Component == component {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

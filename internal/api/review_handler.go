// File path: internal/api/review_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	chi "github.com/go-chi/chi/v5"
)

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": s.reviews.Items(),
	})
}

func (s *Server) handleReviewUpdate(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode updates: %w", err))
		return
	}
	if !s.reviews.UpdateItem(fileID, updates) {
		writeError(w, http.StatusNotFound, fmt.Errorf("file %s not in review queue", fileID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleReviewRemove(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if !s.reviews.RemoveItem(fileID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("file %s not in review queue", fileID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type feedbackRequest struct {
	OriginalCategory  string `json:"original_category"`
	CorrectedCategory string `json:"corrected_category"`
	FileName          string `json:"file_name,omitempty"`
}

func (s *Server) handleReviewFeedback(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode feedback: %w", err))
		return
	}
	if req.CorrectedCategory == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("corrected_category required"))
		return
	}
	if !s.reviews.ProvideFeedback(fileID, req.OriginalCategory, req.CorrectedCategory, req.FileName) {
		writeError(w, http.StatusNotFound, fmt.Errorf("file %s not in review queue", fileID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// File path: internal/api/registration_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	chi "github.com/go-chi/chi/v5"
)

func (s *Server) handleRegistrationList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": s.registrations.List(),
	})
}

type registrationRequest struct {
	FolderID    string `json:"folder_id"`
	CallbackURL string `json:"callback_url,omitempty"`
}

func (s *Server) handleRegistrationCreate(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode registration: %w", err))
		return
	}
	if req.FolderID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("folder_id required"))
		return
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = s.callbackURL
	}
	subID, ok := s.registrations.Register(r.Context(), req.FolderID, callback)
	if !ok {
		writeError(w, http.StatusBadGateway, fmt.Errorf("registration failed for folder %s", req.FolderID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "success",
		"folder_id":       req.FolderID,
		"subscription_id": subID,
	})
}

func (s *Server) handleRegistrationDelete(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")
	if !s.registrations.Unregister(r.Context(), folderID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("folder %s not registered", folderID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

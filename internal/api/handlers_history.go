package api

import (
	"net/http"
	"time"

	"smartreminder/internal/core"
)

type firingResponse struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"task_id"`
	Task        string  `json:"task"`
	Time        string  `json:"time"`
	Status      string  `json:"status"`
	FiredAt     string  `json:"fired_at"`
	NotifyError *string `json:"notify_error,omitempty"`
	SpeakError  *string `json:"speak_error,omitempty"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "not_found", "history is not enabled")
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	firings, err := s.history.ListFirings(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list history", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list history")
		return
	}
	resp := make([]firingResponse, 0, len(firings))
	for _, f := range firings {
		resp = append(resp, firingToResponse(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func firingToResponse(f *core.Firing) firingResponse {
	return firingResponse{
		ID:          f.ID,
		TaskID:      f.TaskID,
		Task:        f.Text,
		Time:        f.Time,
		Status:      string(f.Status),
		FiredAt:     f.FiredAt.UTC().Format(time.RFC3339),
		NotifyError: f.NotifyError,
		SpeakError:  f.SpeakError,
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type timeParseRequest struct {
	Time string `json:"time"`
}

type timeParseResponse struct {
	Valid   bool   `json:"valid"`
	Time    string `json:"time,omitempty"`
	Hour    *int   `json:"hour,omitempty"`
	Minute  *int   `json:"minute,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleTimeParse(w http.ResponseWriter, r *http.Request) {
	var req timeParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, timeParseResponse{Valid: false, Message: "invalid JSON payload"})
		return
	}
	phrase := strings.TrimSpace(req.Time)
	if phrase == "" {
		writeJSON(w, http.StatusBadRequest, timeParseResponse{Valid: false, Message: "time is required"})
		return
	}
	clock, err := s.reminders.Preview(phrase)
	if err != nil {
		writeJSON(w, http.StatusOK, timeParseResponse{Valid: false, Message: err.Error()})
		return
	}
	hour, minute := clock.Hour, clock.Minute
	writeJSON(w, http.StatusOK, timeParseResponse{Valid: true, Time: clock.String(), Hour: &hour, Minute: &minute})
}

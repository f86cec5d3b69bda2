package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartreminder/internal/core"
	"smartreminder/internal/store"

	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Task string `json:"task"`
	Time string `json:"time"`
}

type taskResponse struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Task      string `json:"task"`
	Time      string `json:"time"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.reminders.List(r.Context())
	if err != nil {
		s.logger.Error("list tasks", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list tasks")
		return
	}
	res := make([]taskResponse, 0, len(tasks))
	for i, t := range tasks {
		res = append(res, taskToResponse(t, i))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.Task = strings.TrimSpace(req.Task)
	req.Time = strings.TrimSpace(req.Time)
	if req.Task == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "task is required")
		return
	}
	if req.Time == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "time is required")
		return
	}

	task, index, err := s.reminders.AddPhrase(r.Context(), req.Task, req.Time)
	if err != nil {
		if errors.Is(err, core.ErrUnparseableTime) {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}
		s.logger.Error("create task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, taskToResponse(task, index))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if _, err := s.reminders.Delete(r.Context(), taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "task not found")
		} else {
			s.logger.Error("delete task", "task_id", taskID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete task")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskToResponse(task core.Task, index int) taskResponse {
	return taskResponse{
		ID:        task.ID,
		Index:     index,
		Task:      task.Text,
		Time:      task.Time,
		CreatedAt: task.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}

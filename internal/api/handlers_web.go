package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartreminder/internal/core"
	"smartreminder/internal/store"

	"github.com/go-chi/chi/v5"
)

const (
	voiceAskTask = "What task would you like to add?"
	voiceAskTime = "At what time should I remind you?"
)

// webResult is the {success, ...} envelope the page scripts read.
type webResult struct {
	Success bool   `json:"success"`
	Task    string `json:"task,omitempty"`
	Time    string `json:"time,omitempty"`
	Index   *int   `json:"index,omitempty"`
	ID      string `json:"id,omitempty"`
	// Fallback reports that the spoken time was not understood and the next
	// minute was used instead.
	Fallback bool   `json:"fallback,omitempty"`
	Message  string `json:"message,omitempty"`
}

func added(task core.Task, index int) webResult {
	return webResult{Success: true, Task: task.Text, Time: task.Time, Index: &index, ID: task.ID}
}

func failed(message string) webResult {
	return webResult{Success: false, Message: message}
}

func (s *Server) handleAddAjax(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeJSON(w, http.StatusBadRequest, failed("invalid form"))
		return
	}
	text := strings.TrimSpace(r.PostFormValue("task"))
	value := strings.TrimSpace(r.PostFormValue("time"))
	if text == "" {
		writeJSON(w, http.StatusBadRequest, failed("Task is required."))
		return
	}

	task, index, err := s.addFromForm(r.Context(), text, value)
	switch {
	case errors.Is(err, core.ErrUnparseableTime):
		writeJSON(w, http.StatusBadRequest, failed("Could not understand the time."))
		return
	case err != nil:
		s.logger.Error("add task", "err", err)
		writeJSON(w, http.StatusInternalServerError, failed("Failed to save task."))
		return
	}
	writeJSON(w, http.StatusOK, added(task, index))
}

// addFromForm takes the HH:MM a time input sends and falls back to phrase
// parsing for anything typed by hand.
func (s *Server) addFromForm(ctx context.Context, text, value string) (core.Task, int, error) {
	if clock, err := core.ParseClock(value); err == nil {
		return s.reminders.Add(ctx, text, clock)
	}
	return s.reminders.AddPhrase(ctx, text, value)
}

// handleDeleteAt removes a task by position. The page also sends the card's
// task ID; when present it wins, since the scheduler may have shifted
// positions since the page was rendered.
func (s *Server) handleDeleteAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failed("Invalid task index."))
		return
	}
	if err := parseForm(r); err != nil {
		writeJSON(w, http.StatusBadRequest, failed("invalid form"))
		return
	}

	if id := strings.TrimSpace(r.PostFormValue("id")); id != "" {
		_, err = s.reminders.Delete(r.Context(), id)
	} else {
		_, err = s.reminders.DeleteAt(r.Context(), index)
	}
	if err != nil {
		if errors.Is(err, store.ErrIndexOutOfRange) || errors.Is(err, store.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, failed("Task not found."))
			return
		}
		s.logger.Error("delete task", "index", index, "err", err)
		writeJSON(w, http.StatusInternalServerError, failed("Failed to delete task."))
		return
	}
	writeJSON(w, http.StatusOK, webResult{Success: true})
}

// handleVoice runs the two-turn spoken dialogue: task text, then time. A time
// that cannot be understood becomes the next minute.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		writeJSON(w, http.StatusServiceUnavailable, failed("Voice input is not available."))
		return
	}
	if !s.voiceMu.TryLock() {
		writeJSON(w, http.StatusConflict, failed("Voice input already in progress."))
		return
	}
	defer s.voiceMu.Unlock()

	ctx := r.Context()
	s.say(ctx, voiceAskTask)
	text, err := s.listener.Listen(ctx)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Info("voice task not understood", "err", err)
		writeJSON(w, http.StatusOK, failed("Task not understood"))
		return
	}

	s.say(ctx, voiceAskTime)
	phrase, err := s.listener.Listen(ctx)
	if err != nil {
		s.logger.Info("voice time not captured", "err", err)
		phrase = ""
	}

	task, index, fallback, err := s.reminders.AddPhraseOrSoon(ctx, text, phrase)
	if err != nil {
		s.logger.Error("add voice task", "err", err)
		writeJSON(w, http.StatusOK, failed("Voice input failed."))
		return
	}
	res := added(task, index)
	res.Fallback = fallback
	writeJSON(w, http.StatusOK, res)
}

// parseForm accepts both urlencoded and multipart bodies; fetch with FormData
// sends the latter.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(32 << 10); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func (s *Server) say(ctx context.Context, text string) {
	if err := s.speaker.Speak(ctx, text); err != nil {
		s.logger.Warn("speak", "err", err)
	}
}

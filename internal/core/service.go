package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service is the reminder core shared by the console, the web UI and the MCP tools.
type Service struct {
	store    Store
	alerter  *Alerter
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

// NewService wires the store and alerter together.
func NewService(store Store, alerter *Alerter, logger *slog.Logger, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		store:    store,
		alerter:  alerter,
		logger:   logger,
		location: location,
		now:      time.Now,
	}
}

// SetClock replaces the wall-clock source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List returns the tasks in insertion order.
func (s *Service) List(ctx context.Context) ([]Task, error) {
	return s.store.List(ctx)
}

// Add stores a new task and returns it with its position.
func (s *Service) Add(ctx context.Context, text string, at ClockTime) (Task, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, -1, ErrEmptyText
	}
	if !at.Valid() {
		return Task{}, -1, fmt.Errorf("%w: %s", ErrUnparseableTime, at)
	}
	task := Task{
		ID:        NewID(),
		Text:      text,
		Time:      at.String(),
		CreatedAt: s.now().UTC(),
	}
	index, err := s.store.Add(ctx, task)
	if err != nil {
		return Task{}, -1, fmt.Errorf("add task: %w", err)
	}
	s.logger.Info("task added", "task_id", task.ID, "time", task.Time, "index", index)
	s.alerter.Announce(ctx, AddedTitle,
		fmt.Sprintf("%s at %s", task.Text, task.Time),
		fmt.Sprintf("Task added: %s at %s", task.Text, task.Time))
	return task, index, nil
}

// AddPhrase parses a spoken or typed time phrase and adds the task.
func (s *Service) AddPhrase(ctx context.Context, text, phrase string) (Task, int, error) {
	at, err := ParseTimePhrase(phrase)
	if err != nil {
		return Task{}, -1, err
	}
	return s.Add(ctx, text, at)
}

// AddPhraseOrSoon is AddPhrase with a fallback to one minute from now when the
// phrase cannot be understood. The bool reports whether the fallback was used.
func (s *Service) AddPhraseOrSoon(ctx context.Context, text, phrase string) (Task, int, bool, error) {
	at, err := ParseTimePhrase(phrase)
	fallback := err != nil
	if fallback {
		at = s.OneMinuteFromNow()
		s.logger.Info("time phrase not understood, using next minute", "phrase", phrase, "time", at.String())
	}
	task, index, err := s.Add(ctx, text, at)
	return task, index, fallback, err
}

// DeleteAt removes the task at a zero-based position.
func (s *Service) DeleteAt(ctx context.Context, index int) (Task, error) {
	task, err := s.store.RemoveAt(ctx, index)
	if err != nil {
		return Task{}, err
	}
	s.removed(ctx, task)
	return task, nil
}

// Delete removes the task with the given ID.
func (s *Service) Delete(ctx context.Context, id string) (Task, error) {
	task, err := s.store.Remove(ctx, id)
	if err != nil {
		return Task{}, err
	}
	s.removed(ctx, task)
	return task, nil
}

// Preview parses a time phrase without storing anything.
func (s *Service) Preview(phrase string) (ClockTime, error) {
	return ParseTimePhrase(phrase)
}

// OneMinuteFromNow returns the next minute in the service location.
func (s *Service) OneMinuteFromNow() ClockTime {
	return ClockOf(s.now().In(s.location).Add(time.Minute))
}

func (s *Service) removed(ctx context.Context, task Task) {
	s.logger.Info("task removed", "task_id", task.ID, "time", task.Time)
	s.alerter.Announce(ctx, RemovedTitle, fmt.Sprintf("%s at %s", task.Text, task.Time), "Task removed.")
}

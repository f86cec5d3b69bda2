package core

import (
	"context"
	"errors"
	"sync"
)

var errIndex = errors.New("index out of range")

type memStore struct {
	mu      sync.Mutex
	tasks   []Task
	saveErr error
	writes  int
}

func (m *memStore) List(ctx context.Context) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Task(nil), m.tasks...), nil
}

func (m *memStore) Add(ctx context.Context, task Task) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	m.writes++
	return len(m.tasks) - 1, m.saveErr
}

func (m *memStore) RemoveAt(ctx context.Context, index int) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.tasks) {
		return Task{}, errIndex
	}
	task := m.tasks[index]
	m.tasks = append(m.tasks[:index], m.tasks[index+1:]...)
	m.writes++
	return task, m.saveErr
}

func (m *memStore) Remove(ctx context.Context, id string) (Task, error) {
	m.mu.Lock()
	for i, task := range m.tasks {
		if task.ID == id {
			m.mu.Unlock()
			return m.RemoveAt(ctx, i)
		}
	}
	m.mu.Unlock()
	return Task{}, errIndex
}

func (m *memStore) RemoveMatching(ctx context.Context, match func(Task) bool) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept, removed []Task
	for _, task := range m.tasks {
		if match(task) {
			removed = append(removed, task)
		} else {
			kept = append(kept, task)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	m.tasks = kept
	m.writes++
	return removed, m.saveErr
}

type sent struct {
	Title string
	Body  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{Title: title, Body: body})
	return r.err
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (r *recordingSpeaker) Speak(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return r.err
}

type memHistory struct {
	mu      sync.Mutex
	firings []*Firing
	pruned  int
}

func (h *memHistory) InsertFiring(ctx context.Context, firing *Firing) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.firings = append(h.firings, firing)
	return nil
}

func (h *memHistory) PruneFirings(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruned++
	return nil
}

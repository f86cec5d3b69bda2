package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"smartreminder/internal/core"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrIndexOutOfRange = errors.New("task index out of range")
)

// TaskFile owns the reminder list. The list lives in memory and the whole JSON
// array is rewritten on every mutation. All access goes through one mutex, so
// the scheduler and the foreground surfaces never interleave read-modify-write.
type TaskFile struct {
	mu    sync.Mutex
	path  string
	tasks []core.Task
}

// OpenTaskFile loads the task list at path. A missing or empty file is an empty
// list. Entries written without an id or creation time get them assigned.
func OpenTaskFile(path string) (*TaskFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure task dir: %w", err)
	}
	f := &TaskFile{path: path}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.tasks); err != nil {
		return nil, fmt.Errorf("decode task file %s: %w", path, err)
	}

	assigned := false
	for i := range f.tasks {
		if f.tasks[i].ID == "" {
			f.tasks[i].ID = core.NewID()
			assigned = true
		}
		if f.tasks[i].CreatedAt.IsZero() {
			f.tasks[i].CreatedAt = time.Now().UTC()
			assigned = true
		}
	}
	if assigned {
		if err := f.save(f.tasks); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Path returns the backing file path.
func (f *TaskFile) Path() string {
	return f.path
}

func (f *TaskFile) List(ctx context.Context) ([]core.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Task(nil), f.tasks...), nil
}

func (f *TaskFile) Add(ctx context.Context, task core.Task) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := append(append([]core.Task(nil), f.tasks...), task)
	if err := f.save(next); err != nil {
		return -1, err
	}
	f.tasks = next
	return len(next) - 1, nil
}

func (f *TaskFile) RemoveAt(ctx context.Context, index int) (core.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.tasks) {
		return core.Task{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return f.removeLocked(index)
}

func (f *TaskFile) Remove(ctx context.Context, id string) (core.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, task := range f.tasks {
		if task.ID == id {
			return f.removeLocked(i)
		}
	}
	return core.Task{}, ErrTaskNotFound
}

func (f *TaskFile) RemoveMatching(ctx context.Context, match func(core.Task) bool) ([]core.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept, removed []core.Task
	for _, task := range f.tasks {
		if match(task) {
			removed = append(removed, task)
		} else {
			kept = append(kept, task)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	f.tasks = kept
	return removed, f.save(kept)
}

func (f *TaskFile) removeLocked(index int) (core.Task, error) {
	task := f.tasks[index]
	next := make([]core.Task, 0, len(f.tasks)-1)
	next = append(next, f.tasks[:index]...)
	next = append(next, f.tasks[index+1:]...)
	if err := f.save(next); err != nil {
		return core.Task{}, err
	}
	f.tasks = next
	return task, nil
}

// save writes tasks to a temp file next to the target and renames it into place.
func (f *TaskFile) save(tasks []core.Task) error {
	if tasks == nil {
		tasks = []core.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("create temp task file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close task file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

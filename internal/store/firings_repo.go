package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartreminder/internal/core"
)

var ErrFiringNotFound = errors.New("firing not found")

func (h *History) InsertFiring(ctx context.Context, firing *core.Firing) error {
	if firing.FiredAt.IsZero() {
		firing.FiredAt = time.Now().UTC()
	}
	_, err := h.DB.ExecContext(ctx, `
		INSERT INTO firings (id, task_id, text, time, status, fired_at, notify_error, speak_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, firing.ID, firing.TaskID, firing.Text, firing.Time, firing.Status,
		firing.FiredAt.UTC().Format(time.RFC3339Nano), nullableString(firing.NotifyError), nullableString(firing.SpeakError))
	if err != nil {
		return fmt.Errorf("insert firing: %w", err)
	}
	return nil
}

func (h *History) GetFiring(ctx context.Context, id string) (*core.Firing, error) {
	row := h.DB.QueryRowContext(ctx, `
		SELECT id, task_id, text, time, status, fired_at, notify_error, speak_error
		FROM firings WHERE id = ?
	`, id)
	firing, err := scanFiring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFiringNotFound
		}
		return nil, err
	}
	return firing, nil
}

// ListFirings returns the most recent firings first.
func (h *History) ListFirings(ctx context.Context, limit, offset int) ([]*core.Firing, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, task_id, text, time, status, fired_at, notify_error, speak_error
		FROM firings
		ORDER BY fired_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list firings: %w", err)
	}
	defer rows.Close()
	var firings []*core.Firing
	for rows.Next() {
		firing, err := scanFiring(rows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, firing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return firings, nil
}

// PruneFirings deletes everything beyond the Retain most recent firings.
func (h *History) PruneFirings(ctx context.Context) error {
	if h.Retain <= 0 {
		return nil
	}
	_, err := h.DB.ExecContext(ctx, `
		DELETE FROM firings WHERE id IN (
			SELECT id FROM firings
			ORDER BY fired_at DESC
			LIMIT -1 OFFSET ?
		)
	`, h.Retain)
	if err != nil {
		return fmt.Errorf("prune firings: %w", err)
	}
	return nil
}

func scanFiring(scanner interface {
	Scan(dest ...any) error
}) (*core.Firing, error) {
	var (
		id          string
		taskID      string
		text        string
		clock       string
		status      string
		firedAt     string
		notifyError sql.NullString
		speakError  sql.NullString
	)
	if err := scanner.Scan(&id, &taskID, &text, &clock, &status, &firedAt, &notifyError, &speakError); err != nil {
		return nil, fmt.Errorf("scan firing: %w", err)
	}
	firing := &core.Firing{
		ID:     id,
		TaskID: taskID,
		Text:   text,
		Time:   clock,
		Status: core.FiringStatus(status),
	}
	if t, err := time.Parse(time.RFC3339Nano, firedAt); err == nil {
		firing.FiredAt = t
	}
	if notifyError.Valid {
		firing.NotifyError = &notifyError.String
	}
	if speakError.Valid {
		firing.SpeakError = &speakError.String
	}
	return firing, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

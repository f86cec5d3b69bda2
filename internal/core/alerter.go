package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	ReminderTitle = "⏰ Task Reminder"
	AddedTitle    = "✅ Task Added"
	RemovedTitle  = "🗑 Task Removed"
)

// Notifier shows a visual notification.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// History records fired reminders.
type History interface {
	InsertFiring(ctx context.Context, firing *Firing) error
	PruneFirings(ctx context.Context) error
}

// Alerter delivers reminders and confirmations through the notification and
// speech backends. Backend failures are logged and recorded, never fatal.
type Alerter struct {
	notifier Notifier
	speaker  Speaker
	history  History
	logger   *slog.Logger
}

// NewAlerter creates an alerter. history may be nil.
func NewAlerter(notifier Notifier, speaker Speaker, history History, logger *slog.Logger) *Alerter {
	return &Alerter{
		notifier: notifier,
		speaker:  speaker,
		history:  history,
		logger:   logger,
	}
}

// Fire shows and speaks the reminder, then records the outcome.
func (a *Alerter) Fire(ctx context.Context, task Task, firedAt time.Time) error {
	notifyErr := a.notifier.Send(ctx, ReminderTitle, task.Text)
	if notifyErr != nil {
		a.logger.Warn("send reminder notification", "task_id", task.ID, "err", notifyErr)
	}
	speakErr := a.speaker.Speak(ctx, "Reminder: "+task.Text)
	if speakErr != nil {
		a.logger.Warn("speak reminder", "task_id", task.ID, "err", speakErr)
	}

	if a.history == nil {
		return nil
	}
	firing := &Firing{
		ID:          NewID(),
		TaskID:      task.ID,
		Text:        task.Text,
		Time:        task.Time,
		Status:      firingStatus(notifyErr, speakErr),
		FiredAt:     firedAt.UTC(),
		NotifyError: errString(notifyErr),
		SpeakError:  errString(speakErr),
	}
	if err := a.history.InsertFiring(ctx, firing); err != nil {
		return fmt.Errorf("record firing: %w", err)
	}
	if err := a.history.PruneFirings(ctx); err != nil {
		a.logger.Warn("prune firing history", "err", err)
	}
	return nil
}

// Announce sends a best-effort confirmation such as "task added".
func (a *Alerter) Announce(ctx context.Context, title, body, spoken string) {
	if err := a.notifier.Send(ctx, title, body); err != nil {
		a.logger.Warn("send notification", "title", title, "err", err)
	}
	if spoken == "" {
		return
	}
	if err := a.speaker.Speak(ctx, spoken); err != nil {
		a.logger.Warn("speak", "err", err)
	}
}

func firingStatus(notifyErr, speakErr error) FiringStatus {
	switch {
	case notifyErr == nil && speakErr == nil:
		return FiringStatusDelivered
	case notifyErr != nil && speakErr != nil:
		return FiringStatusFailed
	default:
		return FiringStatusPartial
	}
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}

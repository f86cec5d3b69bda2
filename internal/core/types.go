package core

import (
	"fmt"
	"time"
)

// ClockLayout is the persisted time-of-day layout.
const ClockLayout = "15:04"

// FiringStatus describes how the delivery of a fired reminder went.
type FiringStatus string

const (
	FiringStatusDelivered FiringStatus = "delivered"
	FiringStatusPartial   FiringStatus = "partial"
	FiringStatusFailed    FiringStatus = "failed"
)

// Task is a reminder: free text plus the time of day it should fire.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"task"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// ClockTime is an hour/minute pair on a 24-hour clock.
type ClockTime struct {
	Hour   int
	Minute int
}

// String renders the zero-padded HH:MM form used in storage.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Valid reports whether the pair is inside 00:00..23:59.
func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// ClockOf returns the time of day of t, truncated to the minute.
func ClockOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseClock parses a strict HH:MM value such as the one sent by an HTML time input.
func ParseClock(value string) (ClockTime, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrUnparseableTime, value)
	}
	return ClockOf(t), nil
}

// Firing records a single reminder that went off.
type Firing struct {
	ID          string
	TaskID      string
	Text        string
	Time        string
	Status      FiringStatus
	FiredAt     time.Time
	NotifyError *string
	SpeakError  *string
}

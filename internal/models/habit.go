package models

import (
	"strings"
	"time"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID          string
	Title       string
	TargetCount int
	Frequency   RecurrenceRule
	CreatedAt   time.Time // calendar date the habit starts on
	ArchivedAt  *time.Time
	DeletedAt   *time.Time
	Reminder    *NotificationConfig
}

// EffectiveTarget is the completion count needed for a day to count as fully completed.
func (h Habit) EffectiveTarget() int {
	return max(1, h.TargetCount)
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return errInvalid("habit", "title cannot be empty")
	}
	if h.TargetCount < 1 {
		return errInvalid("habit", "target count must be at least 1, got %d", h.TargetCount)
	}
	if err := ValidateRule(h.Frequency); err != nil {
		return err
	}
	if h.Reminder != nil {
		return h.Reminder.Validate()
	}
	return nil
}

func (h Habit) WithFrequency(rule RecurrenceRule) Habit {
	h.Frequency = rule
	return h
}

func (h Habit) WithReminder(cfg *NotificationConfig) Habit {
	if cfg != nil {
		c := *cfg
		c.HabitID = h.ID
		cfg = &c
	}
	h.Reminder = cfg
	return h
}

// HabitRecord is a single day's progress on a habit. There is at most one per habit and day.
type HabitRecord struct {
	ID             string
	HabitID        string
	Date           time.Time
	CompletedCount int
	Note           string
	CompletedAt    time.Time
}

// IsFullyCompleted reports whether the record meets target.
func (r HabitRecord) IsFullyCompleted(target int) bool {
	return r.CompletedCount >= max(1, target)
}

// Alarm is an armed one-shot wake for a habit's reminder.
type Alarm struct {
	HabitID string
	At      time.Time
	Payload string
	ArmedAt time.Time
}

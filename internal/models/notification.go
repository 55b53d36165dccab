package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/streaklit/internal/constants"
)

type PeriodKind string

const (
	PeriodEveryDay       PeriodKind = "every_day"
	PeriodActiveDaysOnly PeriodKind = "active_days_only"
	PeriodSelectedDays   PeriodKind = "selected_days"
)

// NotificationPeriod narrows the days a reminder may fire on, independently of the habit's
// own recurrence. The variants are EveryDay, ActiveDaysOnly and SelectedDays.
type NotificationPeriod interface {
	Kind() PeriodKind
	isNotificationPeriod()
}

type EveryDay struct{}

type ActiveDaysOnly struct{}

type SelectedDays struct {
	Days WeekdaySet
}

func (EveryDay) Kind() PeriodKind       { return PeriodEveryDay }
func (ActiveDaysOnly) Kind() PeriodKind { return PeriodActiveDaysOnly }
func (SelectedDays) Kind() PeriodKind   { return PeriodSelectedDays }

func (EveryDay) isNotificationPeriod()       {}
func (ActiveDaysOnly) isNotificationPeriod() {}
func (SelectedDays) isNotificationPeriod()   {}

func NewSelectedDays(days WeekdaySet) (SelectedDays, error) {
	if days.Empty() {
		return SelectedDays{}, errInvalid("selected days period", "at least one weekday is required")
	}
	return SelectedDays{Days: days}, nil
}

// ValidatePeriod rejects a period that could never fire.
func ValidatePeriod(period NotificationPeriod) error {
	if period == nil {
		return errInvalid("notification period", "period is required")
	}
	return MatchPeriod(period, PeriodCases[error]{
		EveryDay:       func(EveryDay) error { return nil },
		ActiveDaysOnly: func(ActiveDaysOnly) error { return nil },
		SelectedDays: func(p SelectedDays) error {
			_, err := NewSelectedDays(p.Days)
			return err
		},
	})
}

type PeriodCases[T any] struct {
	EveryDay       func(EveryDay) T
	ActiveDaysOnly func(ActiveDaysOnly) T
	SelectedDays   func(SelectedDays) T
}

// MatchPeriod dispatches period to the matching case. Every case must be set.
func MatchPeriod[T any](period NotificationPeriod, cases PeriodCases[T]) T {
	switch p := period.(type) {
	case EveryDay:
		return cases.EveryDay(p)
	case ActiveDaysOnly:
		return cases.ActiveDaysOnly(p)
	case SelectedDays:
		return cases.SelectedDays(p)
	default:
		panic(fmt.Sprintf("models: unhandled notification period %T", period))
	}
}

func FormatPeriod(period NotificationPeriod) string {
	if period == nil {
		return "unknown"
	}
	return MatchPeriod(period, PeriodCases[string]{
		EveryDay:       func(EveryDay) string { return "every day" },
		ActiveDaysOnly: func(ActiveDaysOnly) string { return "active days only" },
		SelectedDays:   func(p SelectedDays) string { return "on " + p.Days.String() },
	})
}

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		return TimeOfDay{}, errInvalid("parse time", "invalid time format (expected HH:MM): %q", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places the time on a calendar date in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// NotificationConfig is a habit's reminder. Time is kept as entered so a malformed value
// stored by an older client surfaces as INVALID_TIME_FORMAT when the reminder is re-armed.
type NotificationConfig struct {
	HabitID   string
	Time      string
	Enabled   bool
	Period    NotificationPeriod
	UpdatedAt time.Time
}

// Validate checks the reminder time and period.
func (c NotificationConfig) Validate() error {
	if _, err := ParseTimeOfDay(c.Time); err != nil {
		return err
	}
	return ValidatePeriod(c.Period)
}

func (c NotificationConfig) WithEnabled(enabled bool) NotificationConfig {
	c.Enabled = enabled
	return c
}

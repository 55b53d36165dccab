package notification

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/recurrence"
	"github.com/julianstephens/streaklit/internal/utils"
)

// ErrNoOccurrence is returned when a reminder has no firing day within the search horizon.
var ErrNoOccurrence = stderrors.New("no upcoming reminder day within search horizon")

// Planner computes when a reminder should fire next.
type Planner struct {
	Location *time.Location
	// HorizonDays bounds the day-by-day search. Custom rules extend it to one full interval.
	HorizonDays int
}

func (p Planner) loc() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// allows reports whether the reminder's period lets it fire on day.
func allows(period models.NotificationPeriod, resolver recurrence.Resolver, day time.Time) bool {
	return models.MatchPeriod(period, models.PeriodCases[bool]{
		EveryDay:       func(models.EveryDay) bool { return true },
		ActiveDaysOnly: func(models.ActiveDaysOnly) bool { return resolver.IsActive(day) },
		SelectedDays: func(p models.SelectedDays) bool {
			return p.Days.Has(day.Weekday())
		},
	})
}

func (p Planner) search(cfg models.NotificationConfig, habit models.Habit, from time.Time, offset int) (time.Time, error) {
	tod, err := models.ParseTimeOfDay(cfg.Time)
	if err != nil {
		return time.Time{}, err
	}
	if err := models.ValidatePeriod(cfg.Period); err != nil {
		return time.Time{}, err
	}

	resolver := recurrence.ForHabit(habit)
	limit := recurrence.SearchLimit(habit.Frequency, max(p.HorizonDays, 7))
	for i := offset; i <= limit; i++ {
		day := utils.AddDays(from, i)
		if allows(cfg.Period, resolver, day) {
			return tod.On(day, p.loc()), nil
		}
	}
	return time.Time{}, fmt.Errorf("next reminder for habit %s: %w (searched %d days)", habit.ID, ErrNoOccurrence, limit)
}

// Next returns the first firing time on a day after firedDate.
func (p Planner) Next(cfg models.NotificationConfig, habit models.Habit, firedDate time.Time) (time.Time, error) {
	return p.search(cfg, habit, utils.Day(firedDate), 1)
}

// First returns the first firing time strictly after now, today included.
func (p Planner) First(cfg models.NotificationConfig, habit models.Habit, now time.Time) (time.Time, error) {
	now = now.In(p.loc())
	at, err := p.search(cfg, habit, utils.Day(now), 0)
	if err != nil {
		return time.Time{}, err
	}
	if at.After(now) {
		return at, nil
	}
	return p.Next(cfg, habit, at)
}

// NextOccurrence computes the next firing time for a reminder that fired on firedDate,
// searching the default horizon in the local time zone.
func NextOccurrence(cfg models.NotificationConfig, rule models.RecurrenceRule, createdAt, firedDate time.Time) (time.Time, error) {
	habit := models.Habit{ID: cfg.HabitID, Frequency: rule, CreatedAt: createdAt}
	return Planner{HorizonDays: defaultHorizon}.Next(cfg, habit, firedDate)
}

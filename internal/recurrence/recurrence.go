// Package recurrence decides which calendar dates a habit is active on.
package recurrence

import (
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

// IsActive reports whether date is an active day for rule on a habit created on createdAt.
// A habit is never active before its creation day.
func IsActive(rule models.RecurrenceRule, createdAt, date time.Time) bool {
	createdAt, date = utils.Day(createdAt), utils.Day(date)
	if rule == nil || date.Before(createdAt) {
		return false
	}

	return models.MatchRule(rule, models.RuleCases[bool]{
		Daily: func(models.Daily) bool { return true },
		Weekly: func(r models.Weekly) bool {
			return r.Days.Has(date.Weekday())
		},
		Monthly: func(r models.Monthly) bool {
			// A listed day past the end of a short month never matches
			return r.Days.Has(date.Day())
		},
		Custom: func(r models.Custom) bool {
			return customActive(r, createdAt, date)
		},
	})
}

func customActive(r models.Custom, createdAt, date time.Time) bool {
	if r.Interval < 1 {
		return false
	}
	switch r.Unit {
	case models.UnitDays:
		return utils.DaysBetween(createdAt, date)%r.Interval == 0
	case models.UnitWeeks:
		return utils.DaysBetween(createdAt, date)%(7*r.Interval) == 0
	case models.UnitMonths:
		months := (date.Year()-createdAt.Year())*12 + int(date.Month()-createdAt.Month())
		if months%r.Interval != 0 {
			return false
		}
		target := min(createdAt.Day(), utils.DaysInMonth(date.Year(), date.Month()))
		return date.Day() == target
	default:
		return false
	}
}

// Resolver binds a rule to its habit's creation date.
type Resolver struct {
	Rule      models.RecurrenceRule
	CreatedAt time.Time
}

func NewResolver(rule models.RecurrenceRule, createdAt time.Time) Resolver {
	return Resolver{Rule: rule, CreatedAt: utils.Day(createdAt)}
}

// ForHabit builds a Resolver from a habit's frequency and creation date.
func ForHabit(h models.Habit) Resolver {
	return NewResolver(h.Frequency, h.CreatedAt)
}

func (r Resolver) IsActive(date time.Time) bool {
	return IsActive(r.Rule, r.CreatedAt, date)
}

// NextActive returns the first active day strictly after after, looking at most limit days
// ahead. The second result is false when no active day exists within the horizon.
func (r Resolver) NextActive(after time.Time, limit int) (time.Time, bool) {
	day := utils.Day(after)
	for i := 1; i <= limit; i++ {
		candidate := utils.AddDays(day, i)
		if r.IsActive(candidate) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// ActiveDaysBetween counts active days in [from, to] inclusive.
func (r Resolver) ActiveDaysBetween(from, to time.Time) int {
	from, to = utils.Day(from), utils.Day(to)
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if r.IsActive(d) {
			count++
		}
	}
	return count
}

// ActiveDays lists active days in [from, to] inclusive.
func (r Resolver) ActiveDays(from, to time.Time) []time.Time {
	from, to = utils.Day(from), utils.Day(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if r.IsActive(d) {
			days = append(days, d)
		}
	}
	return days
}

// SearchLimit is a horizon for NextActive that always reaches the next occurrence of rule.
// Monthly rules naming only the 31st can go two months without a match, and a Custom
// rule's next occurrence is at most one interval away.
func SearchLimit(rule models.RecurrenceRule, base int) int {
	if rule == nil {
		return base
	}
	return models.MatchRule(rule, models.RuleCases[int]{
		Daily:   func(models.Daily) int { return base },
		Weekly:  func(models.Weekly) int { return base },
		Monthly: func(models.Monthly) int { return base },
		Custom: func(c models.Custom) int {
			span := c.Interval
			switch c.Unit {
			case models.UnitWeeks:
				span *= 7
			case models.UnitMonths:
				span *= 31
			}
			return max(base, span+1)
		},
	})
}

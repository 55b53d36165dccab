// Package stats holds the windowed completion reducers. Each reducer works on the same
// ascending list of fully completed dates and never re-evaluates recurrence rules, except
// ScheduledRate which is explicitly rule-aware.
package stats

import (
	"sort"
	"time"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/recurrence"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Summary bundles the reducers for one habit.
type Summary struct {
	WindowDays     int        `json:"window_days"`
	CompletionRate float64    `json:"completion_rate"`
	ScheduledRate  float64    `json:"scheduled_rate"`
	ThisWeek       int        `json:"this_week"`
	ThisMonth      int        `json:"this_month"`
	AveragePerDay  float64    `json:"average_per_day"`
	TotalCompleted int        `json:"total_completed"`
	LastCompleted  *time.Time `json:"last_completed,omitempty"`
}

// CompletedDates returns the ascending calendar dates of records that meet target.
func CompletedDates(records []models.HabitRecord, target int) []time.Time {
	seen := make(map[time.Time]struct{}, len(records))
	var dates []time.Time
	for _, r := range records {
		if !r.IsFullyCompleted(target) {
			continue
		}
		day := utils.Day(r.Date)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sortDays(dates)
	return dates
}

func countBetween(completed []time.Time, from, to time.Time) int {
	from, to = utils.Day(from), utils.Day(to)
	n := 0
	for _, d := range completed {
		d = utils.Day(d)
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n
}

// CompletionRate is the share of the last window days, today included, that were completed.
// A non-positive window falls back to the default.
func CompletionRate(completed []time.Time, today time.Time, window int) float64 {
	if window <= 0 {
		window = constants.DefaultStatsWindowDays
	}
	from := utils.AddDays(today, -(window - 1))
	return clamp01(float64(countBetween(completed, from, today)) / float64(window))
}

// CountThisWeek counts completions from Monday of today's week through today.
func CountThisWeek(completed []time.Time, today time.Time) int {
	return countBetween(completed, utils.StartOfWeek(today), today)
}

// CountThisMonth counts completions from the first of today's month through today.
func CountThisMonth(completed []time.Time, today time.Time) int {
	return countBetween(completed, utils.StartOfMonth(today), today)
}

// AveragePerDay divides the number of completed days by the days from the earliest record
// to today inclusive.
func AveragePerDay(completed []time.Time, records []models.HabitRecord, today time.Time) float64 {
	if len(records) == 0 {
		return 0
	}
	earliest := utils.Day(records[0].Date)
	for _, r := range records[1:] {
		if d := utils.Day(r.Date); d.Before(earliest) {
			earliest = d
		}
	}
	span := utils.DaysBetween(earliest, today) + 1
	if span <= 0 {
		return 0
	}
	return float64(countBetween(completed, earliest, today)) / float64(span)
}

func LastCompleted(completed []time.Time) (time.Time, bool) {
	var last time.Time
	for _, d := range completed {
		if d = utils.Day(d); d.After(last) {
			last = d
		}
	}
	return last, !last.IsZero()
}

// ScheduledRate is the share of active days in the window that were completed. Days before
// the habit existed are not counted. A window with no active day yields 0.
func ScheduledRate(resolver recurrence.Resolver, completed []time.Time, today time.Time, window int) float64 {
	if window <= 0 {
		window = constants.DefaultStatsWindowDays
	}
	from := utils.AddDays(today, -(window - 1))
	active := resolver.ActiveDays(from, today)
	if len(active) == 0 {
		return 0
	}

	done := make(map[time.Time]struct{}, len(completed))
	for _, d := range completed {
		done[utils.Day(d)] = struct{}{}
	}
	hit := 0
	for _, d := range active {
		if _, ok := done[d]; ok {
			hit++
		}
	}
	return clamp01(float64(hit) / float64(len(active)))
}

// Summarize runs every reducer for habit.
func Summarize(habit models.Habit, records []models.HabitRecord, today time.Time, window int) Summary {
	if window <= 0 {
		window = constants.DefaultStatsWindowDays
	}
	completed := CompletedDates(records, habit.EffectiveTarget())

	s := Summary{
		WindowDays:     window,
		CompletionRate: CompletionRate(completed, today, window),
		ScheduledRate:  ScheduledRate(recurrence.ForHabit(habit), completed, today, window),
		ThisWeek:       CountThisWeek(completed, today),
		ThisMonth:      CountThisMonth(completed, today),
		AveragePerDay:  AveragePerDay(completed, records, today),
		TotalCompleted: len(completed),
	}
	if last, ok := LastCompleted(completed); ok {
		s.LastCompleted = &last
	}
	return s
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func sortDays(days []time.Time) {
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
}

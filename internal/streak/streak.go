// Package streak computes current and longest completion streaks. Days the habit is not
// scheduled on neither extend nor break a streak.
package streak

import (
	"sort"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/recurrence"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Result holds streak lengths counted in completed days.
type Result struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Tracker evaluates streaks for one habit against a set of fully completed dates.
type Tracker struct {
	resolver  recurrence.Resolver
	completed map[time.Time]struct{}
	dates     []time.Time
}

// NewTracker normalizes completed to calendar dates, sorts it and drops duplicates.
// Dates before the habit's creation day are ignored.
func NewTracker(rule models.RecurrenceRule, createdAt time.Time, completed []time.Time) *Tracker {
	t := &Tracker{
		resolver:  recurrence.NewResolver(rule, createdAt),
		completed: make(map[time.Time]struct{}, len(completed)),
	}
	created := utils.Day(createdAt)
	for _, d := range completed {
		day := utils.Day(d)
		if day.Before(created) {
			continue
		}
		if _, ok := t.completed[day]; ok {
			continue
		}
		t.completed[day] = struct{}{}
		t.dates = append(t.dates, day)
	}
	sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })
	return t
}

// Maintained reports whether every active day strictly between from and to was completed.
// to itself is exempt, so a streak is still alive on a day that has not been done yet.
func (t *Tracker) Maintained(from, to time.Time) bool {
	from, to = utils.Day(from), utils.Day(to)
	for d := utils.AddDays(from, 1); d.Before(to); d = utils.AddDays(d, 1) {
		if !t.resolver.IsActive(d) {
			continue
		}
		if _, ok := t.completed[d]; !ok {
			return false
		}
	}
	return true
}

// Longest returns the longest chain of completed dates with no missed active day between.
func (t *Tracker) Longest() int {
	if len(t.dates) == 0 {
		return 0
	}
	longest, running := 1, 1
	for i := 1; i < len(t.dates); i++ {
		if t.Maintained(t.dates[i-1], t.dates[i]) {
			running++
			continue
		}
		longest = max(longest, running)
		running = 1
	}
	return max(longest, running)
}

// Current returns the length of the chain ending at the most recent completion on or before
// today, or 0 when an active day between that completion and today was missed.
func (t *Tracker) Current(today time.Time) int {
	today = utils.Day(today)
	end := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(today) })
	if end == 0 {
		return 0
	}
	if !t.Maintained(t.dates[end-1], today) {
		return 0
	}
	current := 1
	for i := end - 1; i > 0; i-- {
		if !t.Maintained(t.dates[i-1], t.dates[i]) {
			break
		}
		current++
	}
	return current
}

// Compute returns the current and longest streak for a habit.
func Compute(rule models.RecurrenceRule, createdAt, today time.Time, completed []time.Time) Result {
	t := NewTracker(rule, createdAt, completed)
	return Result{Current: t.Current(today), Longest: t.Longest()}
}

package streak

import (
	"testing"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

func days(base time.Time, offsets ...int) []time.Time {
	out := make([]time.Time, len(offsets))
	for i, o := range offsets {
		out[i] = utils.AddDays(base, o)
	}
	return out
}

func TestCompute(t *testing.T) {
	monday := utils.DateOf(2026, time.March, 2)
	mwf, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	every3, _ := models.NewCustom(3, models.UnitDays)

	tests := []struct {
		name      string
		rule      models.RecurrenceRule
		created   time.Time
		today     time.Time
		completed []time.Time
		want      Result
	}{
		{
			name:    "no completions",
			rule:    models.Daily{},
			created: monday,
			today:   utils.AddDays(monday, 5),
			want:    Result{},
		},
		{
			name:      "completions before creation are ignored",
			rule:      models.Daily{},
			created:   utils.AddDays(monday, 8),
			today:     utils.AddDays(monday, 8),
			completed: days(monday, 3, 8),
			want:      Result{Current: 1, Longest: 1},
		},
		{
			name:      "gap tolerance on weekly rule",
			rule:      mwf,
			created:   monday,
			today:     utils.AddDays(monday, 4),
			completed: days(monday, 0, 2, 4),
			want:      Result{Current: 3, Longest: 3},
		},
		{
			name:      "weekend silence keeps weekly streak",
			rule:      mwf,
			created:   monday,
			today:     utils.AddDays(monday, 7),
			completed: days(monday, 0, 2, 4),
			want:      Result{Current: 3, Longest: 3},
		},
		{
			name:      "missed active day breaks current streak",
			rule:      mwf,
			created:   monday,
			today:     utils.AddDays(monday, 9),
			completed: days(monday, 0, 2, 4),
			want:      Result{Current: 0, Longest: 3},
		},
		{
			name:      "daily streak broken in the middle",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 6),
			completed: days(monday, 0, 1, 2, 4, 5, 6),
			want:      Result{Current: 3, Longest: 3},
		},
		{
			name:      "today not done yet keeps yesterday's streak",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 3),
			completed: days(monday, 0, 1, 2),
			want:      Result{Current: 3, Longest: 3},
		},
		{
			name:      "single date maintained through today",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 1),
			completed: days(monday, 0),
			want:      Result{Current: 1, Longest: 1},
		},
		{
			name:      "single date broken before today",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 2),
			completed: days(monday, 0),
			want:      Result{Current: 0, Longest: 1},
		},
		{
			name:      "custom interval counts completed days not calendar days",
			rule:      every3,
			created:   monday,
			today:     utils.AddDays(monday, 10),
			completed: days(monday, 0, 3, 6, 9),
			want:      Result{Current: 4, Longest: 4},
		},
		{
			name:      "duplicates and unsorted input",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 2),
			completed: days(monday, 2, 0, 1, 1, 2),
			want:      Result{Current: 3, Longest: 3},
		},
		{
			name:      "completions after today ignored for current",
			rule:      models.Daily{},
			created:   monday,
			today:     utils.AddDays(monday, 1),
			completed: days(monday, 0, 1, 5),
			want:      Result{Current: 2, Longest: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.rule, tt.created, tt.today, tt.completed)
			if got != tt.want {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMaintained(t *testing.T) {
	monday := utils.DateOf(2026, time.March, 2)
	mwf, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	tr := NewTracker(mwf, monday, days(monday, 0, 4))

	if !tr.Maintained(monday, monday) {
		t.Error("same date must be maintained")
	}
	if !tr.Maintained(monday, utils.AddDays(monday, 2)) {
		t.Error("Tuesday is inactive and the end date is exempt")
	}
	if tr.Maintained(monday, utils.AddDays(monday, 4)) {
		t.Error("missing Wednesday must break the chain")
	}
}

func TestCurrentIsMonotonicWhenTodayCompleted(t *testing.T) {
	created := utils.DateOf(2026, time.January, 1)
	mwf, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	rules := []models.RecurrenceRule{models.Daily{}, mwf}

	for _, rule := range rules {
		var completed []time.Time
		for i := 0; i < 60; i++ {
			today := utils.AddDays(created, i)
			tr := NewTracker(rule, created, completed)
			before := tr.Current(today)
			maintained := len(completed) == 0 || tr.Maintained(completed[len(completed)-1], today)

			completed = append(completed, today)
			after := Compute(rule, created, today, completed).Current

			if maintained && after < before {
				t.Fatalf("%s day %d: current dropped from %d to %d", models.FormatRule(rule), i, before, after)
			}
			// skip a day now and then so chains restart
			if i%11 == 10 {
				completed = completed[:len(completed)-1]
			}
		}
	}
}

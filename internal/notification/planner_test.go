package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	created := utils.DateOf(2026, time.January, 5)
	monday := utils.DateOf(2026, time.March, 2)
	mwf, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	every3, _ := models.NewCustom(3, models.UnitDays)
	sundays, _ := models.NewSelectedDays(models.NewWeekdaySet(time.Sunday))

	tests := []struct {
		name   string
		rule   models.RecurrenceRule
		period models.NotificationPeriod
		want   time.Time
	}{
		{"every day ignores the rule", mwf, models.EveryDay{}, utils.DateOf(2026, time.March, 3)},
		{"active days follow the rule", mwf, models.ActiveDaysOnly{}, utils.DateOf(2026, time.March, 4)},
		{"selected days ignore the rule", mwf, sundays, utils.DateOf(2026, time.March, 8)},
		{"custom interval", every3, models.ActiveDaysOnly{}, utils.DateOf(2026, time.March, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := models.NotificationConfig{HabitID: "h", Time: "18:45", Enabled: true, Period: tt.period}

			got, err := NextOccurrence(cfg, tt.rule, created, monday)
			require.NoError(t, err)
			want := time.Date(tt.want.Year(), tt.want.Month(), tt.want.Day(), 18, 45, 0, 0, time.Local)
			assert.True(t, want.Equal(got), "got %s, want %s", got, want)
		})
	}
}

func TestPlannerErrors(t *testing.T) {
	t.Parallel()
	p := Planner{Location: time.UTC, HorizonDays: 30}
	h := models.Habit{ID: "h", Frequency: models.Daily{}, CreatedAt: utils.DateOf(2026, time.January, 1)}

	_, err := p.Next(models.NotificationConfig{Time: "noon", Period: models.EveryDay{}}, h, testNow)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	// active days only on a habit that starts far in the future
	h.CreatedAt = utils.DateOf(2027, time.January, 1)
	_, err = p.Next(models.NotificationConfig{Time: "09:00", Period: models.ActiveDaysOnly{}}, h, testNow)
	require.True(t, errors.Is(err, ErrNoOccurrence))
	assert.Equal(t, FailureScheduling, Classify(err))
}

func TestPlannerFirst(t *testing.T) {
	t.Parallel()
	p := Planner{Location: time.UTC, HorizonDays: 30}
	mondays, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday))
	h := models.Habit{ID: "h", Frequency: mondays, CreatedAt: utils.DateOf(2026, time.January, 5)}
	cfg := models.NotificationConfig{Time: "08:00", Period: models.ActiveDaysOnly{}}

	// exactly at the firing time today is already too late
	got, err := p.First(cfg, h, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC), got)

	got, err = p.First(cfg, h, testNow.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC), got)
}

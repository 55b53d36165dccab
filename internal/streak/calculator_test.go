package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

type habitStoreMock struct {
	GetHabitFunc func(ctx context.Context, id string) (*models.Habit, error)
}

func (m *habitStoreMock) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	return m.GetHabitFunc(ctx, id)
}

type recordStoreMock struct {
	FullyCompletedDatesFunc func(ctx context.Context, habitID string) ([]time.Time, error)
	calls                   int
}

func (m *recordStoreMock) FullyCompletedDates(ctx context.Context, habitID string) ([]time.Time, error) {
	m.calls++
	return m.FullyCompletedDatesFunc(ctx, habitID)
}

func TestCalculator_Calculate(t *testing.T) {
	t.Parallel()

	created := utils.DateOf(2026, time.March, 2)
	habit := &models.Habit{ID: "h1", Title: "Walk", TargetCount: 1, Frequency: models.Daily{}, CreatedAt: created}

	t.Run("computes streak", func(t *testing.T) {
		t.Parallel()

		calc := NewCalculator(
			&habitStoreMock{GetHabitFunc: func(_ context.Context, id string) (*models.Habit, error) {
				assert.Equal(t, "h1", id)
				return habit, nil
			}},
			&recordStoreMock{FullyCompletedDatesFunc: func(context.Context, string) ([]time.Time, error) {
				return days(created, 0, 1, 2), nil
			}},
		)

		got, err := calc.Calculate(context.Background(), "h1", utils.AddDays(created, 2))
		require.NoError(t, err)
		assert.Equal(t, Result{Current: 3, Longest: 3}, got)
	})

	t.Run("missing habit is NotFound", func(t *testing.T) {
		t.Parallel()

		records := &recordStoreMock{FullyCompletedDatesFunc: func(context.Context, string) ([]time.Time, error) {
			return nil, nil
		}}
		calc := NewCalculator(
			&habitStoreMock{GetHabitFunc: func(context.Context, string) (*models.Habit, error) { return nil, nil }},
			records,
		)

		_, err := calc.Calculate(context.Background(), "missing", created)
		require.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Zero(t, records.calls, "records must not be read for a missing habit")
	})

	t.Run("habit lookup failure is RepositoryError", func(t *testing.T) {
		t.Parallel()

		calc := NewCalculator(
			&habitStoreMock{GetHabitFunc: func(context.Context, string) (*models.Habit, error) {
				return nil, errors.New("disk I/O error")
			}},
			&recordStoreMock{},
		)

		_, err := calc.Calculate(context.Background(), "h1", created)
		require.ErrorIs(t, err, apperr.ErrRepository)
	})

	t.Run("record lookup failure is RepositoryError", func(t *testing.T) {
		t.Parallel()

		calc := NewCalculator(
			&habitStoreMock{GetHabitFunc: func(context.Context, string) (*models.Habit, error) { return habit, nil }},
			&recordStoreMock{FullyCompletedDatesFunc: func(context.Context, string) ([]time.Time, error) {
				return nil, errors.New("connection reset")
			}},
		)

		got, err := calc.Calculate(context.Background(), "h1", created)
		require.ErrorIs(t, err, apperr.ErrRepository)
		assert.Equal(t, Result{}, got)
	})
}

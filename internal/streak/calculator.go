package streak

import (
	"context"
	"time"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
)

// HabitStore looks up a habit. A missing habit is either a nil habit with a nil error or a
// NotFound error.
type HabitStore interface {
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
}

// RecordStore returns the ascending dates on which a habit met its target.
type RecordStore interface {
	FullyCompletedDates(ctx context.Context, habitID string) ([]time.Time, error)
}

// Calculator loads a habit and its completions and computes its streak.
type Calculator struct {
	Habits  HabitStore
	Records RecordStore
}

func NewCalculator(habits HabitStore, records RecordStore) *Calculator {
	return &Calculator{Habits: habits, Records: records}
}

// Calculate returns the streak for habitID as of today. It fails with a NotFound error when
// the habit is missing and a RepositoryError when either store fails.
func (c *Calculator) Calculate(ctx context.Context, habitID string, today time.Time) (Result, error) {
	const op = "calculate streak"

	habit, err := c.Habits.GetHabit(ctx, habitID)
	if err != nil {
		return Result{}, storeErr(op, err)
	}
	if habit == nil {
		return Result{}, apperr.NotFound(op, "habit %s not found", habitID)
	}

	dates, err := c.Records.FullyCompletedDates(ctx, habitID)
	if err != nil {
		return Result{}, storeErr(op, err)
	}

	return Compute(habit.Frequency, habit.CreatedAt, today, dates), nil
}

func storeErr(op string, err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return err
	}
	return apperr.Repository(op, err)
}

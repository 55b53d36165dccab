package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

var habitColumns = []string{"id", "title", "target_count", "frequency", "created_at", "archived_at", "deleted_at"}

func scanHabit(row rowScanner) (models.Habit, error) {
	var (
		h                     models.Habit
		frequency, createdAt  string
		archivedAt, deletedAt sql.NullString
	)
	if err := row.Scan(&h.ID, &h.Title, &h.TargetCount, &frequency, &createdAt, &archivedAt, &deletedAt); err != nil {
		return models.Habit{}, err
	}

	rule, err := models.UnmarshalRule([]byte(frequency))
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	h.Frequency = rule

	if h.CreatedAt, err = utils.ParseDay(createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: invalid created_at %q: %w", h.ID, createdAt, err)
	}
	if h.ArchivedAt, err = parseTimestamp(archivedAt); err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	if h.DeletedAt, err = parseTimestamp(deletedAt); err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	return h, nil
}

func (s *SQLStore) AddHabit(ctx context.Context, habit models.Habit) error {
	if habit.ID == "" {
		return apperr.InvalidInput("add habit", "habit id is required")
	}
	if err := habit.Validate(); err != nil {
		return err
	}
	frequency, err := models.MarshalRule(habit.Frequency)
	if err != nil {
		return err
	}

	_, err = s.sb.Insert("habits").
		Columns(append(habitColumns[:len(habitColumns):len(habitColumns)], "updated_at")...).
		Values(
			habit.ID,
			habit.Title,
			habit.TargetCount,
			string(frequency),
			utils.FormatDay(habit.CreatedAt),
			nullTimestamp(habit.ArchivedAt),
			nullTimestamp(habit.DeletedAt),
			formatTimestamp(s.now()),
		).
		RunWith(s.db).
		ExecContext(ctx)
	if isUniqueViolation(err) {
		return apperr.InvalidInput("add habit", "habit %s already exists", habit.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	if habit.Reminder != nil {
		return s.SaveNotificationConfig(ctx, *habit.Reminder)
	}
	return nil
}

// GetHabit returns a live or archived habit with its reminder. Soft-deleted habits are
// reported as NotFound.
func (s *SQLStore) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	return s.getHabit(ctx, sq.Eq{"id": id}, id)
}

// GetHabitByTitle matches the title case-insensitively.
func (s *SQLStore) GetHabitByTitle(ctx context.Context, title string) (*models.Habit, error) {
	return s.getHabit(ctx, sq.Expr("LOWER(title) = LOWER(?)", title), title)
}

func (s *SQLStore) getHabit(ctx context.Context, pred sq.Sqlizer, ref string) (*models.Habit, error) {
	row := s.sb.Select(habitColumns...).
		From("habits").
		Where(pred).
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("created_at", "id").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx)

	habit, err := scanHabit(row)
	if isNoRows(err) {
		return nil, apperr.NotFound("get habit", "habit %q not found", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	habits := []models.Habit{habit}
	if err := s.attachReminders(ctx, habits); err != nil {
		return nil, err
	}
	return &habits[0], nil
}

func (s *SQLStore) ListHabits(ctx context.Context, opts ListOptions) ([]models.Habit, error) {
	q := s.sb.Select(habitColumns...).From("habits").OrderBy("created_at", "title")
	if !opts.IncludeDeleted {
		q = q.Where(sq.Eq{"deleted_at": nil})
	}
	if !opts.IncludeArchived {
		q = q.Where(sq.Eq{"archived_at": nil})
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.attachReminders(ctx, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// ListHabitsWithReminders returns live, unarchived habits that carry a reminder, enabled
// or not.
func (s *SQLStore) ListHabitsWithReminders(ctx context.Context) ([]models.Habit, error) {
	habits, err := s.ListHabits(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	out := habits[:0]
	for _, h := range habits {
		if h.Reminder != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

// UpdateHabit rewrites the habit's title, target and frequency. The reminder is left
// alone; it changes through SaveNotificationConfig.
func (s *SQLStore) UpdateHabit(ctx context.Context, habit models.Habit) error {
	if err := habit.Validate(); err != nil {
		return err
	}
	frequency, err := models.MarshalRule(habit.Frequency)
	if err != nil {
		return err
	}

	res, err := s.sb.Update("habits").
		SetMap(map[string]interface{}{
			"title":        habit.Title,
			"target_count": habit.TargetCount,
			"frequency":    string(frequency),
			"updated_at":   formatTimestamp(s.now()),
		}).
		Where(sq.Eq{"id": habit.ID, "deleted_at": nil}).
		RunWith(s.db).
		ExecContext(ctx)
	return s.expectRow(res, err, "update habit", habit.ID)
}

func (s *SQLStore) ArchiveHabit(ctx context.Context, id string) error {
	return s.setHabitTimestamp(ctx, "archive habit", id, "archived_at", formatTimestamp(s.now()), sq.Eq{"deleted_at": nil})
}

func (s *SQLStore) UnarchiveHabit(ctx context.Context, id string) error {
	return s.setHabitTimestamp(ctx, "unarchive habit", id, "archived_at", nil, sq.Eq{"deleted_at": nil})
}

// DeleteHabit soft-deletes a habit. Its records and reminder stay in place so a restore
// brings everything back.
func (s *SQLStore) DeleteHabit(ctx context.Context, id string) error {
	return s.setHabitTimestamp(ctx, "delete habit", id, "deleted_at", formatTimestamp(s.now()), sq.Eq{"deleted_at": nil})
}

func (s *SQLStore) RestoreHabit(ctx context.Context, id string) error {
	return s.setHabitTimestamp(ctx, "restore habit", id, "deleted_at", nil, sq.NotEq{"deleted_at": nil})
}

func (s *SQLStore) setHabitTimestamp(ctx context.Context, op, id, column string, value interface{}, cond sq.Sqlizer) error {
	res, err := s.sb.Update("habits").
		Set(column, value).
		Set("updated_at", formatTimestamp(s.now())).
		Where(sq.Eq{"id": id}).
		Where(cond).
		RunWith(s.db).
		ExecContext(ctx)
	return s.expectRow(res, err, op, id)
}

func (s *SQLStore) expectRow(res sql.Result, err error, op, id string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(op, "habit %q not found", id)
	}
	return nil
}

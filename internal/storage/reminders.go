package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/streaklit/internal/models"
)

// SaveNotificationConfig inserts or replaces a habit's reminder. The time string is
// stored as given.
func (s *SQLStore) SaveNotificationConfig(ctx context.Context, cfg models.NotificationConfig) error {
	period, err := models.MarshalPeriod(cfg.Period)
	if err != nil {
		return err
	}
	_, err = s.sb.Insert("notification_configs").
		Columns("habit_id", "time", "enabled", "period", "updated_at").
		Values(cfg.HabitID, cfg.Time, cfg.Enabled, string(period), formatTimestamp(s.now())).
		Suffix("ON CONFLICT (habit_id) DO UPDATE SET time = excluded.time, enabled = excluded.enabled, period = excluded.period, updated_at = excluded.updated_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save reminder for habit %s: %w", cfg.HabitID, err)
	}
	return nil
}

func (s *SQLStore) DeleteNotificationConfig(ctx context.Context, habitID string) error {
	_, err := s.sb.Delete("notification_configs").
		Where(sq.Eq{"habit_id": habitID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reminder for habit %s: %w", habitID, err)
	}
	return nil
}

// attachReminders fills in Reminder for each habit that has one.
func (s *SQLStore) attachReminders(ctx context.Context, habits []models.Habit) error {
	if len(habits) == 0 {
		return nil
	}
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}

	rows, err := s.sb.Select("habit_id", "time", "enabled", "period", "updated_at").
		From("notification_configs").
		Where(sq.Eq{"habit_id": ids}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}
	defer rows.Close()

	reminders := make(map[string]*models.NotificationConfig, len(habits))
	for rows.Next() {
		var (
			cfg       models.NotificationConfig
			period    string
			updatedAt string
		)
		if err := rows.Scan(&cfg.HabitID, &cfg.Time, &cfg.Enabled, &period, &updatedAt); err != nil {
			return err
		}
		if cfg.Period, err = models.UnmarshalPeriod([]byte(period)); err != nil {
			return fmt.Errorf("reminder for habit %s: %w", cfg.HabitID, err)
		}
		if ts, err := parseTimestamp(nullString(updatedAt)); err == nil && ts != nil {
			cfg.UpdatedAt = *ts
		}
		reminders[cfg.HabitID] = &cfg
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range habits {
		habits[i].Reminder = reminders[habits[i].ID]
	}
	return nil
}

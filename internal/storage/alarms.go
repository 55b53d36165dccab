package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/streaklit/internal/models"
)

// The alarms table backs the one-shot wakes the reminder engine arms. A row is an armed
// alarm; firing claims it by deleting the row. Times are stored as unix seconds.

var alarmColumns = []string{"habit_id", "fire_at", "payload", "armed_at"}

func scanAlarm(row rowScanner) (models.Alarm, error) {
	var (
		a       models.Alarm
		fireAt  int64
		armedAt string
	)
	if err := row.Scan(&a.HabitID, &fireAt, &a.Payload, &armedAt); err != nil {
		return models.Alarm{}, err
	}
	a.At = time.Unix(fireAt, 0)
	if ts, err := parseTimestamp(nullString(armedAt)); err == nil && ts != nil {
		a.ArmedAt = *ts
	}
	return a, nil
}

// ArmOneShot arms or replaces the habit's alarm.
func (s *SQLStore) ArmOneShot(ctx context.Context, habitID string, at time.Time, payload string) error {
	_, err := s.sb.Insert("alarms").
		Columns(alarmColumns...).
		Values(habitID, at.Unix(), payload, formatTimestamp(s.now())).
		Suffix("ON CONFLICT (habit_id) DO UPDATE SET fire_at = excluded.fire_at, payload = excluded.payload, armed_at = excluded.armed_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to arm alarm for habit %s: %w", habitID, err)
	}
	return nil
}

// Cancel removes the habit's alarm. Cancelling an unarmed habit is not an error.
func (s *SQLStore) Cancel(ctx context.Context, habitID string) error {
	_, err := s.sb.Delete("alarms").
		Where(sq.Eq{"habit_id": habitID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel alarm for habit %s: %w", habitID, err)
	}
	return nil
}

func (s *SQLStore) IsArmed(ctx context.Context, habitID string) (bool, error) {
	a, err := s.GetAlarm(ctx, habitID)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// GetAlarm returns nil with no error when the habit has no alarm armed.
func (s *SQLStore) GetAlarm(ctx context.Context, habitID string) (*models.Alarm, error) {
	row := s.sb.Select(alarmColumns...).
		From("alarms").
		Where(sq.Eq{"habit_id": habitID}).
		RunWith(s.db).
		QueryRowContext(ctx)
	a, err := scanAlarm(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alarm: %w", err)
	}
	return &a, nil
}

func (s *SQLStore) ListAlarms(ctx context.Context) ([]models.Alarm, error) {
	return s.queryAlarms(ctx, s.sb.Select(alarmColumns...).From("alarms").OrderBy("fire_at", "habit_id"))
}

// DueAlarms returns the alarms whose fire time is at or before now, earliest first.
func (s *SQLStore) DueAlarms(ctx context.Context, now time.Time) ([]models.Alarm, error) {
	return s.queryAlarms(ctx, s.sb.Select(alarmColumns...).
		From("alarms").
		Where(sq.LtOrEq{"fire_at": now.Unix()}).
		OrderBy("fire_at", "habit_id"))
}

func (s *SQLStore) queryAlarms(ctx context.Context, q sq.SelectBuilder) ([]models.Alarm, error) {
	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// ClaimAlarm removes the alarm if it is still the one that was read. It returns false
// when another runner claimed it first or the alarm was re-armed in between.
func (s *SQLStore) ClaimAlarm(ctx context.Context, alarm models.Alarm) (bool, error) {
	res, err := s.sb.Delete("alarms").
		Where(sq.Eq{"habit_id": alarm.HabitID, "fire_at": alarm.At.Unix()}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim alarm for habit %s: %w", alarm.HabitID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

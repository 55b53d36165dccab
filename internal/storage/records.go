package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

var recordColumns = []string{"id", "habit_id", "date", "completed_count", "note", "completed_at"}

func scanRecord(row rowScanner) (models.HabitRecord, error) {
	var (
		r                 models.HabitRecord
		date, completedAt string
	)
	if err := row.Scan(&r.ID, &r.HabitID, &date, &r.CompletedCount, &r.Note, &completedAt); err != nil {
		return models.HabitRecord{}, err
	}
	var err error
	if r.Date, err = utils.ParseDay(date); err != nil {
		return models.HabitRecord{}, fmt.Errorf("record %s: invalid date %q: %w", r.ID, date, err)
	}
	ts, err := parseTimestamp(nullString(completedAt))
	if err != nil {
		return models.HabitRecord{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if ts != nil {
		r.CompletedAt = *ts
	}
	return r, nil
}

// UpsertRecord writes the single record for (habit, date), replacing any earlier count.
func (s *SQLStore) UpsertRecord(ctx context.Context, record models.HabitRecord) error {
	if record.CompletedCount < 0 {
		return apperr.InvalidInput("save record", "completed count cannot be negative, got %d", record.CompletedCount)
	}
	if record.Date.IsZero() {
		return apperr.InvalidInput("save record", "record date is required")
	}
	if _, err := s.GetHabit(ctx, record.HabitID); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CompletedAt.IsZero() {
		record.CompletedAt = s.now()
	}

	_, err := s.sb.Insert("habit_records").
		Columns(recordColumns...).
		Values(
			record.ID,
			record.HabitID,
			utils.FormatDay(record.Date),
			record.CompletedCount,
			record.Note,
			formatTimestamp(record.CompletedAt),
		).
		Suffix("ON CONFLICT (habit_id, date) DO UPDATE SET completed_count = excluded.completed_count, note = excluded.note, completed_at = excluded.completed_at").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetRecord returns nil with no error when nothing was recorded for that day.
func (s *SQLStore) GetRecord(ctx context.Context, habitID string, date time.Time) (*models.HabitRecord, error) {
	row := s.sb.Select(recordColumns...).
		From("habit_records").
		Where(sq.Eq{"habit_id": habitID, "date": utils.FormatDay(date)}).
		RunWith(s.db).
		QueryRowContext(ctx)

	r, err := scanRecord(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &r, nil
}

func (s *SQLStore) DeleteRecord(ctx context.Context, habitID string, date time.Time) error {
	res, err := s.sb.Delete("habit_records").
		Where(sq.Eq{"habit_id": habitID, "date": utils.FormatDay(date)}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("delete record", "no record for habit %q on %s", habitID, utils.FormatDay(date))
	}
	return nil
}

// ListRecords returns the habit's records between from and to inclusive, oldest first.
// A zero bound leaves that side open.
func (s *SQLStore) ListRecords(ctx context.Context, habitID string, from, to time.Time) ([]models.HabitRecord, error) {
	q := s.sb.Select(recordColumns...).
		From("habit_records").
		Where(sq.Eq{"habit_id": habitID}).
		OrderBy("date")
	if !from.IsZero() {
		q = q.Where(sq.GtOrEq{"date": utils.FormatDay(from)})
	}
	if !to.IsZero() {
		q = q.Where(sq.LtOrEq{"date": utils.FormatDay(to)})
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []models.HabitRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FullyCompletedDates returns the dates whose count met the habit's target, oldest first.
func (s *SQLStore) FullyCompletedDates(ctx context.Context, habitID string) ([]time.Time, error) {
	rows, err := s.sb.Select("r.date").
		From("habit_records r").
		Join("habits h ON h.id = r.habit_id").
		Where(sq.Eq{"r.habit_id": habitID}).
		Where("r.completed_count >= h.target_count").
		Where("r.completed_count > 0").
		OrderBy("r.date").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := utils.ParseDay(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid record date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

package storage

import (
	"context"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/julianstephens/streaklit/internal/models"
)

func (s *SQLStore) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := s.sb.Select("key", "value").From("settings").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}

	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}

	settings, err := models.MapToSettings(data)
	if err != nil {
		return models.Settings{}, err
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

func (s *SQLStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range models.SettingsToMap(settings) {
		if err := s.putSetting(ctx, tx, key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) putSetting(ctx context.Context, runner sq.BaseRunner, key, value string) error {
	_, err := s.sb.Insert("settings").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		RunWith(runner).
		ExecContext(ctx)
	return err
}

// GlobalEnabled reads the app-level reminder toggle. A store without the key reports
// the default.
func (s *SQLStore) GlobalEnabled(ctx context.Context) (bool, error) {
	var value string
	err := s.sb.Select("value").
		From("settings").
		Where(sq.Eq{"key": constants.SettingNotificationsEnabled}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&value)
	if isNoRows(err) {
		return constants.DefaultNotificationsEnabled, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", constants.SettingNotificationsEnabled, err)
	}
	return value == "true", nil
}

func (s *SQLStore) SetGlobalEnabled(ctx context.Context, enabled bool) error {
	if err := s.putSetting(ctx, s.db, constants.SettingNotificationsEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to save %s: %w", constants.SettingNotificationsEnabled, err)
	}
	return nil
}

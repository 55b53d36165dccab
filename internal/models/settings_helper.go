package models

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingStatsWindowDays:
			if _, err := fmt.Sscanf(value, "%d", &settings.StatsWindowDays); err != nil {
				return Settings{}, fmt.Errorf("parsing stats_window_days: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingNotificationsEnabled: fmt.Sprintf("%v", settings.NotificationsEnabled),
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingStatsWindowDays:      fmt.Sprintf("%d", settings.StatsWindowDays),
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.StatsWindowDays == 0 {
		settings.StatsWindowDays = constants.DefaultStatsWindowDays
	}
}

// DefaultSettings returns the settings a fresh store starts with.
func DefaultSettings() Settings {
	s := Settings{NotificationsEnabled: constants.DefaultNotificationsEnabled}
	ApplyDefaultSettings(&s)
	return s
}

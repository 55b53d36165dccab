package constants

const (
	// General Settings
	SettingNotificationsEnabled = "notifications_enabled"
	SettingTimezone             = "timezone"
	SettingStatsWindowDays      = "stats_window_days"

	// Default Settings Values
	DefaultNotificationsEnabled = true
	DefaultTimezone             = "Local" // Use system local timezone by default
)

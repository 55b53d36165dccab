package models

// Settings represents application-wide settings
type Settings struct {
	NotificationsEnabled bool   `json:"notifications_enabled"` // app-level toggle layered on OS permission
	Timezone             string `json:"timezone"`              // IANA timezone name (e.g. "America/New_York", or "Local" for system timezone)
	StatsWindowDays      int    `json:"stats_window_days"`     // rolling window for completion rate
}

package constants

import "time"

const (
	AppName            = "streaklit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/streaklit"
	DefaultDBPath      = "~/.config/streaklit/streaklit.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "streaklit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.streaklit"
	TrayExecutablePrefix   = "streaklit-tray"
	SecretHeader           = "X-Streaklit-Secret"

	// Stats
	DefaultStatsWindowDays = 30

	// Reminder search bounds: a SelectedDays or ActiveDaysOnly reminder never needs more
	// than one full cycle of its rule to find the next occurrence.
	DefaultSearchHorizonDays = 366

	// Orchestrator defaults
	DefaultPermissionTTL    = 30 * time.Second
	DefaultBatchConcurrency = 4
	DefaultFireWorkers      = 2
)

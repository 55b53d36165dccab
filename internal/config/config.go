package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Log           LogConfig           `yaml:"log"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Stats         StatsConfig         `yaml:"stats"`
	API           APIConfig           `yaml:"api"`
	Tray          TrayConfig          `yaml:"tray"`
}

// DatabaseConfig selects the store. Conn is a SQLite path or a password-free
// PostgreSQL connection string.
type DatabaseConfig struct {
	Conn       string `yaml:"conn"        env:"STREAKLIT_DB"          env-default:"~/.config/streaklit/streaklit.db"`
	UseKeyring bool   `yaml:"use_keyring" env:"STREAKLIT_DB_KEYRING"  env-default:"false"`
	BackupKeep int    `yaml:"backup_keep" env:"STREAKLIT_BACKUP_KEEP" env-default:"14"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool   `yaml:"debug" env:"STREAKLIT_DEBUG"   env-default:"false"`
	Dir   string `yaml:"dir"   env:"STREAKLIT_LOG_DIR" env-default:"~/.config/streaklit"`
}

// NotificationsConfig tunes the reminder orchestrator.
type NotificationsConfig struct {
	PermissionTTL     time.Duration `yaml:"permission_ttl"      env:"STREAKLIT_PERMISSION_TTL"     env-default:"30s"`
	BatchConcurrency  int           `yaml:"batch_concurrency"   env:"STREAKLIT_BATCH_CONCURRENCY"  env-default:"4"`
	FireWorkers       int           `yaml:"fire_workers"        env:"STREAKLIT_FIRE_WORKERS"       env-default:"2"`
	SearchHorizonDays int           `yaml:"search_horizon_days" env:"STREAKLIT_SEARCH_HORIZON"     env-default:"366"`
	Sound             bool          `yaml:"sound"               env:"STREAKLIT_NOTIFY_SOUND"       env-default:"true"`
	Vibrate           bool          `yaml:"vibrate"             env:"STREAKLIT_NOTIFY_VIBRATE"     env-default:"true"`
	TickInterval      time.Duration `yaml:"tick_interval"       env:"STREAKLIT_TICK_INTERVAL"      env-default:"1m"`
	Timezone          string        `yaml:"timezone"            env:"STREAKLIT_TIMEZONE"           env-default:"Local"`
}

// StatsConfig holds completion-rate settings.
type StatsConfig struct {
	WindowDays int `yaml:"window_days" env:"STREAKLIT_STATS_WINDOW" env-default:"30"`
}

// APIConfig holds the local HTTP API settings. An empty Secret falls back to the
// keyring.
type APIConfig struct {
	Listen          string        `yaml:"listen"           env:"STREAKLIT_API_LISTEN"           env-default:"127.0.0.1:7878"`
	Secret          string        `yaml:"secret"           env:"STREAKLIT_API_SECRET"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"STREAKLIT_API_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"STREAKLIT_API_WRITE_TIMEOUT"    env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"STREAKLIT_API_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// TrayConfig locates the companion tray app that displays notifications.
type TrayConfig struct {
	Identifier       string `yaml:"identifier"        env:"STREAKLIT_TRAY_ID"     env-default:"com.julianstephens.streaklit"`
	ExecutablePrefix string `yaml:"executable_prefix" env:"STREAKLIT_TRAY_PREFIX" env-default:"streaklit-tray"`
}

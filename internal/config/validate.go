package config

import (
	"fmt"
	"net"

	"github.com/julianstephens/streaklit/internal/utils"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.Conn == "" && !c.Database.UseKeyring {
		return fmt.Errorf("database.conn is required unless database.use_keyring is set")
	}
	if c.Database.BackupKeep < 1 {
		return fmt.Errorf("database.backup_keep must be >= 1 (got %d)", c.Database.BackupKeep)
	}
	if err := c.Notifications.validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if c.Stats.WindowDays < 1 {
		return fmt.Errorf("stats.window_days must be >= 1 (got %d)", c.Stats.WindowDays)
	}
	if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
		return fmt.Errorf("api.listen: %w", err)
	}
	return nil
}

func (n *NotificationsConfig) validate() error {
	if n.PermissionTTL < 0 {
		return fmt.Errorf("permission_ttl must be >= 0 (got %v)", n.PermissionTTL)
	}
	if n.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be >= 1 (got %d)", n.BatchConcurrency)
	}
	if n.FireWorkers < 1 {
		return fmt.Errorf("fire_workers must be >= 1 (got %d)", n.FireWorkers)
	}
	if n.SearchHorizonDays < 7 {
		return fmt.Errorf("search_horizon_days must be >= 7 (got %d)", n.SearchHorizonDays)
	}
	if n.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be > 0 (got %v)", n.TickInterval)
	}
	if !utils.ValidateTimezone(n.Timezone) {
		return fmt.Errorf("unknown timezone %q", n.Timezone)
	}
	return nil
}

package system

import (
	"time"

	"github.com/julianstephens/streaklit/internal/cli"
	apperr "github.com/julianstephens/streaklit/internal/errors"
)

type SettingsCmd struct {
	List        bool   `help:"List current settings."`
	Timezone    string `help:"IANA timezone used for calendar dates and reminders (or 'Local')."`
	StatsWindow int    `name:"stats-window" help:"Days in the rolling completion-rate window."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings(ctx.Context())
	if err != nil {
		return err
	}

	changed := false
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return apperr.InvalidInput("settings", "unknown timezone %q", c.Timezone)
		}
		settings.Timezone = c.Timezone
		changed = true
	}
	if c.StatsWindow != 0 {
		if c.StatsWindow < 1 {
			return apperr.InvalidInput("settings", "stats window must be at least 1 day")
		}
		settings.StatsWindowDays = c.StatsWindow
		changed = true
	}

	if changed {
		if err := ctx.Store.SaveSettings(ctx.Context(), settings); err != nil {
			return err
		}
		cli.Success("Settings updated")
	}

	if c.List || !changed {
		cli.Row("timezone", settings.Timezone)
		cli.Row("stats_window_days", settings.StatsWindowDays)
		cli.Row("notifications", enabledLabel(settings.NotificationsEnabled))
	}
	return nil
}

func enabledLabel(on bool) string {
	if on {
		return cli.OKStyle.Render("enabled")
	}
	return cli.MutedStyle.Render("disabled")
}

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/streaklit/internal/app"
	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/config"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
)

type Context struct {
	Ctx    context.Context
	Config *config.Config
	Store  storage.Provider

	// AppOptions are applied when the App is first built.
	AppOptions []app.Option

	app *app.App
}

// App builds the application on first use. The store must be loaded by then.
func (c *Context) App() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(c.Context(), c.Config, c.Store, c.AppOptions...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors.
// Only SQLite stores are backed up.
func (c *Context) PerformAutomaticBackup() {
	s, ok := c.Store.(*storage.SQLStore)
	if !ok || s.Dialect() != storage.DialectSQLite {
		return
	}
	keep := backup.DefaultKeep
	if c.Config != nil && c.Config.Database.BackupKeep > 0 {
		keep = c.Config.Database.BackupKeep
	}
	mgr := backup.NewManager(s.GetConfigPath(), backup.WithKeep(keep))
	if _, err := mgr.CreateBackup(c.Context()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveHabit finds a habit by ID or title.
func (c *Context) ResolveHabit(ref string) (*app.App, *models.Habit, error) {
	a, err := c.App()
	if err != nil {
		return nil, nil, err
	}
	h, err := a.ResolveHabit(c.Context(), ref)
	if err != nil {
		return nil, nil, err
	}
	return a, h, nil
}

// RuleFlags are the recurrence flags shared by habit add and edit.
type RuleFlags struct {
	Every    string `help:"Recurrence: daily, weekly, monthly or custom."`
	Days     string `help:"Weekdays for weekly (mon,wed) or days of month for monthly (1,15)."`
	Interval int    `help:"Interval for custom recurrence." default:"1"`
	Unit     string `help:"Unit for custom recurrence: days, weeks or months." enum:"days,weeks,months" default:"days"`
}

// Set reports whether any recurrence was given.
func (f RuleFlags) Set() bool {
	return f.Every != ""
}

// Rule builds the recurrence rule the flags describe. An unset rule is daily.
func (f RuleFlags) Rule() (models.RecurrenceRule, error) {
	switch models.RuleKind(f.Every) {
	case "", models.RuleDaily:
		return models.Daily{}, nil
	case models.RuleWeekly:
		days, err := models.ParseWeekdays(f.Days)
		if err != nil {
			return nil, err
		}
		return models.NewWeekly(days)
	case models.RuleMonthly:
		days, err := models.ParseMonthDays(f.Days)
		if err != nil {
			return nil, err
		}
		return models.NewMonthly(days)
	case models.RuleCustom:
		return models.NewCustom(f.Interval, models.IntervalUnit(f.Unit))
	default:
		return nil, apperr.InvalidInput("parse recurrence", "unknown recurrence %q", f.Every)
	}
}

// ParsePeriod builds a notification period from its flag form.
func ParsePeriod(kind, days string) (models.NotificationPeriod, error) {
	switch strings.ReplaceAll(kind, "-", "_") {
	case "", string(models.PeriodEveryDay):
		return models.EveryDay{}, nil
	case string(models.PeriodActiveDaysOnly):
		return models.ActiveDaysOnly{}, nil
	case string(models.PeriodSelectedDays):
		set, err := models.ParseWeekdays(days)
		if err != nil {
			return nil, err
		}
		return models.NewSelectedDays(set)
	default:
		return nil, apperr.InvalidInput("parse period", "unknown reminder period %q", kind)
	}
}

// ParseDate parses YYYY-MM-DD, "today" or "yesterday" relative to today.
func ParseDate(s string, today time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.AddDays(today, -1), nil
	}
	d, err := utils.ParseDay(s)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("parse date", "invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// HabitStatus labels archived and deleted habits.
func HabitStatus(h models.Habit) string {
	switch {
	case h.DeletedAt != nil:
		return "deleted"
	case h.ArchivedAt != nil:
		return "archived"
	default:
		return ""
	}
}

func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

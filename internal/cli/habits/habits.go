package habits

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/streaklit/internal/cli"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/notification"
	"github.com/julianstephens/streaklit/internal/storage"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a new habit."`
	List      HabitListCmd      `cmd:"" help:"List habits."`
	Edit      HabitEditCmd      `cmd:"" help:"Edit a habit."`
	Archive   HabitArchiveCmd   `cmd:"" help:"Archive a habit."`
	Unarchive HabitUnarchiveCmd `cmd:"" help:"Bring back an archived habit."`
	Delete    HabitDeleteCmd    `cmd:"" help:"Delete a habit (soft delete)."`
	Restore   HabitRestoreCmd   `cmd:"" help:"Restore a deleted habit."`
	Export    HabitExportCmd    `cmd:"" help:"Export habits as YAML."`
	Import    HabitImportCmd    `cmd:"" help:"Import habits from YAML."`
}

type HabitAddCmd struct {
	Title  string `arg:"" help:"Habit title."`
	Target int    `help:"Completions per day needed to count the day as done." default:"1"`

	cli.RuleFlags `embed:""`

	Remind     string `help:"Reminder time (HH:MM)."`
	Period     string `help:"Reminder days: every-day, active-days-only or selected-days." default:"every-day"`
	PeriodDays string `help:"Weekdays for a selected-days reminder (mon,fri)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	// Check if habit with same title already exists
	if _, err := ctx.Store.GetHabitByTitle(ctx.Context(), c.Title); err == nil {
		return fmt.Errorf("habit with title %q already exists", c.Title)
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}

	rule, err := c.Rule()
	if err != nil {
		return err
	}
	var period models.NotificationPeriod
	if c.Remind != "" {
		if period, err = cli.ParsePeriod(c.Period, c.PeriodDays); err != nil {
			return err
		}
		if _, err := models.ParseTimeOfDay(c.Remind); err != nil {
			return err
		}
	}

	habit := models.Habit{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(c.Title),
		TargetCount: c.Target,
		Frequency:   rule,
		CreatedAt:   a.Today(),
	}
	if err := ctx.Store.AddHabit(ctx.Context(), habit); err != nil {
		return err
	}
	cli.Success("Added habit: %s (%s)", habit.Title, models.FormatRule(rule))

	if c.Remind == "" {
		return nil
	}
	if err := a.Orchestrator.EnableHabitNotification(ctx.Context(), habit.ID, c.Remind, period); err != nil {
		cli.Warning("Reminder not enabled: %s", apperr.UserMessage(err))
		return nil
	}
	cli.Success("Reminder set for %s, %s", c.Remind, models.FormatPeriod(period))
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	Deleted  bool `help:"Include deleted habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(ctx.Context(), storage.ListOptions{
		IncludeArchived: c.Archived,
		IncludeDeleted:  c.Deleted,
	})
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, habit := range habits {
		line := cli.TitleStyle.Render(habit.Title) + "  " + models.FormatRule(habit.Frequency)
		if habit.TargetCount > 1 {
			line += fmt.Sprintf(", %dx", habit.TargetCount)
		}
		line += "  " + cli.MutedStyle.Render(notification.FormatState(notification.StateOf(habit)))
		if status := cli.HabitStatus(habit); status != "" {
			line += " " + cli.WarnStyle.Render("["+strings.ToUpper(status)+"]")
		}
		fmt.Println(line)
		fmt.Println(cli.MutedStyle.Render("  " + habit.ID))
	}

	return nil
}

type HabitEditCmd struct {
	Habit  string `arg:"" help:"Habit ID or title."`
	Title  string `help:"New title."`
	Target int    `help:"New daily target." default:"0"`

	cli.RuleFlags `embed:""`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	updated := *habit
	changed := false
	if c.Title != "" {
		updated.Title = strings.TrimSpace(c.Title)
		changed = true
	}
	if c.Target > 0 {
		updated.TargetCount = c.Target
		changed = true
	}
	if c.RuleFlags.Set() {
		rule, err := c.Rule()
		if err != nil {
			return err
		}
		updated.Frequency = rule
		changed = true
	}
	if !changed {
		fmt.Println("No changes specified.")
		return nil
	}

	if err := a.UpdateHabit(ctx.Context(), updated); err != nil {
		return err
	}
	cli.Success("Updated habit: %s (%s)", updated.Title, models.FormatRule(updated.Frequency))
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := a.ArchiveHabit(ctx.Context(), habit.ID); err != nil {
		return err
	}
	cli.Success("Archived habit: %s", habit.Title)
	return nil
}

type HabitUnarchiveCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
}

func (c *HabitUnarchiveCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := a.UnarchiveHabit(ctx.Context(), habit.ID); err != nil {
		return err
	}
	cli.Success("Unarchived habit: %s", habit.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	ok, err := cli.Confirm(
		fmt.Sprintf("Delete habit %q?", habit.Title),
		"Its reminder is cancelled. The habit can be restored later.",
		c.Yes,
	)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Delete cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := a.DeleteHabit(ctx.Context(), habit.ID); err != nil {
		return err
	}
	cli.Success("Deleted habit: %s", habit.Title)
	return nil
}

type HabitRestoreCmd struct {
	ID string `arg:"" help:"ID of the deleted habit."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	if err := a.RestoreHabit(ctx.Context(), c.ID); err != nil {
		return err
	}
	cli.Success("Restored habit: %s", c.ID)
	return nil
}

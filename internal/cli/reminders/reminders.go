package reminders

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/notification"
)

type RemindCmd struct {
	Enable     RemindEnableCmd     `cmd:"" help:"Set and enable a habit's reminder."`
	Disable    RemindDisableCmd    `cmd:"" help:"Disable a habit's reminder."`
	EnableAll  RemindEnableAllCmd  `cmd:"" name:"enable-all" help:"Turn reminders on app-wide."`
	DisableAll RemindDisableAllCmd `cmd:"" name:"disable-all" help:"Turn reminders off app-wide."`
	Status     RemindStatusCmd     `cmd:"" help:"Show reminder state." default:"1"`
}

type RemindEnableCmd struct {
	Habit      string `arg:"" help:"Habit ID or title."`
	At         string `arg:"" help:"Reminder time (HH:MM)."`
	Period     string `help:"Reminder days: every-day, active-days-only or selected-days." default:"every-day"`
	PeriodDays string `help:"Weekdays for a selected-days reminder (mon,fri)."`
}

func (c *RemindEnableCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	period, err := cli.ParsePeriod(c.Period, c.PeriodDays)
	if err != nil {
		return err
	}
	if err := a.Orchestrator.EnableHabitNotification(ctx.Context(), habit.ID, c.At, period); err != nil {
		return reminderErr(err)
	}

	on, err := ctx.Store.GlobalEnabled(ctx.Context())
	if err != nil {
		return err
	}
	if !on {
		cli.Warning("Reminder saved for %s. Reminders are off app-wide; run 'streaklit remind enable-all'.", habit.Title)
		return nil
	}
	cli.Success("Reminder for %s at %s, %s", habit.Title, c.At, models.FormatPeriod(period))
	return nil
}

type RemindDisableCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
}

func (c *RemindDisableCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if err := a.Orchestrator.DisableHabitNotification(ctx.Context(), habit.ID); err != nil {
		return reminderErr(err)
	}
	cli.Success("Reminder disabled for %s", habit.Title)
	return nil
}

type RemindEnableAllCmd struct{}

func (c *RemindEnableAllCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	return reportBatch("Reminders enabled", a.Orchestrator.EnableGlobalNotifications(ctx.Context()))
}

type RemindDisableAllCmd struct{}

func (c *RemindDisableAllCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	return reportBatch("Reminders disabled", a.Orchestrator.DisableGlobalNotifications(ctx.Context()))
}

func reportBatch(label string, res notification.BatchResult) error {
	switch r := res.(type) {
	case notification.BatchSuccess:
		cli.Success("%s: %s", label, notification.FormatBatch(r))
		return nil
	case notification.PartialSuccess:
		cli.Warning("%s: %s", label, notification.FormatBatch(r))
		for _, f := range r.Failures {
			fmt.Printf("  %s  %s  %v\n", f.HabitID, f.Type, f.Err)
		}
		return nil
	case notification.BatchError:
		return reminderErr(r)
	default:
		return fmt.Errorf("unexpected batch result %T", res)
	}
}

// reminderErr keeps the typed error for logs but leads with the user-facing message.
func reminderErr(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindPermissionDenied, apperr.KindGloballyDisabled:
		return fmt.Errorf("%s (run 'streaklit permission request' or 'streaklit permission settings'): %w", apperr.UserMessage(err), err)
	default:
		return err
	}
}

type RemindStatusCmd struct{}

func (c *RemindStatusCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	state, err := a.Orchestrator.CheckGlobalState(ctx.Context())
	if err != nil {
		cli.Row("Reminders", cli.ErrStyle.Render(apperr.UserMessage(err)))
	} else {
		cli.Row("Reminders", formatGlobalState(state))
	}

	habits, err := ctx.Store.ListHabitsWithReminders(ctx.Context())
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habit reminders configured.")
		return nil
	}

	fmt.Println()
	for _, h := range habits {
		line := notification.FormatState(notification.StateOf(h))
		alarm, err := ctx.Store.GetAlarm(ctx.Context(), h.ID)
		if err != nil {
			return err
		}
		if alarm != nil {
			line += cli.MutedStyle.Render("  next " + alarm.At.In(a.Location()).Format("Mon 2006-01-02 15:04"))
		}
		cli.Row(h.Title, line)
	}
	return nil
}

func formatGlobalState(s notification.GlobalState) string {
	switch s {
	case notification.StateEnabled:
		return cli.OKStyle.Render("enabled")
	case notification.StateNeedsGlobalEnable:
		return cli.WarnStyle.Render("off (run 'streaklit remind enable-all')")
	case notification.StateNeedsSystemPermission:
		return cli.WarnStyle.Render("needs permission (run 'streaklit permission request')")
	default:
		return cli.ErrStyle.Render("unknown")
	}
}

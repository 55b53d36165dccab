package system

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
)

// NotifyCmd fires every reminder whose alarm is due. It is run periodically by cron or the
// tray app.
type NotifyCmd struct {
	DryRun bool `help:"List due reminders without firing them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	if c.DryRun {
		due, err := ctx.Store.DueAlarms(ctx.Context(), a.Now())
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("No reminders due.")
			return nil
		}
		for _, alarm := range due {
			fmt.Printf("[DryRun] %s due at %s\n", alarm.HabitID, alarm.At.In(a.Location()).Format("2006-01-02 15:04"))
		}
		return nil
	}

	n, err := a.FireDue(ctx.Context())
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Printf("Fired %s\n", cli.Plural(n, "reminder"))
	}
	return nil
}

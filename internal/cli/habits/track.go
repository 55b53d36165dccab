package habits

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/recurrence"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
)

type MarkCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
	Date  string `help:"Date in YYYY-MM-DD format, 'today' or 'yesterday'." default:"today"`
	Count int    `help:"Completions to record." default:"1"`
	Set   bool   `help:"Replace the day's count instead of adding to it."`
	Note  string `help:"Optional note for this entry."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := cli.ParseDate(c.Date, a.Today())
	if err != nil {
		return err
	}

	rec, err := a.RecordProgress(ctx.Context(), habit.ID, day, c.Count, !c.Set, c.Note)
	if err != nil {
		return err
	}

	progress := fmt.Sprintf("%d/%d", rec.CompletedCount, habit.EffectiveTarget())
	if rec.IsFullyCompleted(habit.TargetCount) {
		cli.Success("%s on %s: %s done", habit.Title, utils.FormatDay(day), progress)
	} else {
		fmt.Printf("%s on %s: %s\n", habit.Title, utils.FormatDay(day), progress)
	}
	return nil
}

type UnmarkCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
	Date  string `help:"Date in YYYY-MM-DD format, 'today' or 'yesterday'." default:"today"`
}

func (c *UnmarkCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := cli.ParseDate(c.Date, a.Today())
	if err != nil {
		return err
	}
	if err := a.ClearProgress(ctx.Context(), habit.ID, day); err != nil {
		return err
	}
	fmt.Printf("Unmarked %s for %s\n", habit.Title, utils.FormatDay(day))
	return nil
}

type StreakCmd struct {
	Habit string `arg:"" optional:"" help:"Habit ID or title (default: all habits)."`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	var habits []models.Habit
	if c.Habit != "" {
		h, err := a.ResolveHabit(ctx.Context(), c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{*h}
	} else if habits, err = ctx.Store.ListHabits(ctx.Context(), storage.ListOptions{}); err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	today := a.Today()
	for _, h := range habits {
		res, err := a.Streak(ctx.Context(), h.ID)
		if err != nil {
			return err
		}
		marker := " "
		if recurrence.ForHabit(h).IsActive(today) {
			marker = "•"
		}
		fmt.Printf("%s %s  current %s  longest %s\n",
			marker,
			cli.TitleStyle.Render(h.Title),
			cli.OKStyle.Render(cli.Plural(res.Current, "day")),
			cli.Plural(res.Longest, "day"),
		)
	}
	return nil
}

type StatsCmd struct {
	Habit string `arg:"" help:"Habit ID or title."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	a, habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	sum, err := a.Stats(ctx.Context(), habit.ID)
	if err != nil {
		return err
	}
	res, err := a.Streak(ctx.Context(), habit.ID)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render(habit.Title) + "  " + cli.MutedStyle.Render(models.FormatRule(habit.Frequency)))
	cli.Row("Current streak", cli.Plural(res.Current, "day"))
	cli.Row("Longest streak", cli.Plural(res.Longest, "day"))
	cli.Row(fmt.Sprintf("Rate (%dd)", sum.WindowDays), fmt.Sprintf("%.0f%%", sum.CompletionRate*100))
	cli.Row("Scheduled rate", fmt.Sprintf("%.0f%%", sum.ScheduledRate*100))
	cli.Row("This week", sum.ThisWeek)
	cli.Row("This month", sum.ThisMonth)
	cli.Row("Per day", fmt.Sprintf("%.2f", sum.AveragePerDay))
	cli.Row("Total", sum.TotalCompleted)
	if sum.LastCompleted != nil {
		cli.Row("Last completed", utils.FormatDay(*sum.LastCompleted))
	}
	return nil
}

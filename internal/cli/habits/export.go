package habits

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/streaklit/internal/cli"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/notification"
	"github.com/julianstephens/streaklit/internal/storage"
)

// Document is the YAML layout of an export file.
type Document struct {
	Version int            `yaml:"version"`
	Habits  []models.Habit `yaml:"habits"`
}

const documentVersion = 1

type HabitExportCmd struct {
	Output   string `short:"o" help:"Output file (default: stdout)." type:"path"`
	Archived bool   `help:"Include archived habits."`
}

func (c *HabitExportCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(ctx.Context(), storage.ListOptions{IncludeArchived: c.Archived})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", c.Output, err)
		}
		defer f.Close()
		w = f
	}

	if err := WriteDocument(w, habits); err != nil {
		return err
	}
	if c.Output != "" {
		cli.Success("Exported %s to %s", cli.Plural(len(habits), "habit"), c.Output)
	}
	return nil
}

// WriteDocument encodes habits as an export document.
func WriteDocument(w io.Writer, habits []models.Habit) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Version: documentVersion, Habits: habits}); err != nil {
		return fmt.Errorf("failed to encode habits: %w", err)
	}
	return enc.Close()
}

// ReadDocument decodes an export document. Habits are validated through the same
// constructors the store uses.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return Document{}, apperr.InvalidInput("read habits", "invalid habit file: %v", err)
	}
	if doc.Version > documentVersion {
		return Document{}, apperr.InvalidInput("read habits", "unsupported habit file version %d", doc.Version)
	}
	return doc, nil
}

type HabitImportCmd struct {
	File string `arg:"" help:"YAML file written by habit export." type:"existingfile"`
}

func (c *HabitImportCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	imported, skipped := 0, 0
	for _, h := range doc.Habits {
		if _, err := ctx.Store.GetHabitByTitle(ctx.Context(), h.Title); err == nil {
			cli.Warning("Skipping %q: a habit with that title exists", h.Title)
			skipped++
			continue
		}
		if strings.TrimSpace(h.ID) == "" {
			h.ID = uuid.New().String()
		}
		h.DeletedAt = nil
		if h.Reminder != nil {
			h = h.WithReminder(h.Reminder)
		}
		if err := ctx.Store.AddHabit(ctx.Context(), h); err != nil {
			if apperr.KindOf(err) == apperr.KindInvalidInput {
				cli.Warning("Skipping %q: %v", h.Title, err)
				skipped++
				continue
			}
			return err
		}
		imported++
	}

	cli.Success("Imported %s, skipped %d", cli.Plural(imported, "habit"), skipped)

	// Imported reminders are stored but not armed yet.
	res := a.Orchestrator.Reschedule(ctx.Context())
	if _, ok := res.(notification.BatchSuccess); !ok {
		cli.Warning("Reminders: %s", notification.FormatBatch(res))
	}
	return nil
}

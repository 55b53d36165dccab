package system

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/storage"
)

type MigrateCmd struct {
	Status bool `help:"Only show the schema version."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	s, ok := ctx.Store.(*storage.SQLStore)
	if !ok {
		return fmt.Errorf("migrate command only supports SQL storage")
	}
	if s.GetDB() == nil {
		return fmt.Errorf("database connection is nil")
	}

	if c.Status {
		current, latest, err := s.SchemaVersion(ctx.Context())
		if err != nil {
			return err
		}
		cli.Row("Schema version", current)
		cli.Row("Latest version", latest)
		return nil
	}

	count, err := s.Migrate(ctx.Context(), func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database and start over."`
	Yes   bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(ctx.Context()); err != nil {
		return err
	}
	fmt.Printf("Initialized streaklit storage at: %s\n", displayConn(ctx.Store))
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	s, ok := ctx.Store.(*storage.SQLStore)
	if !ok || s.Dialect() != storage.DialectSQLite {
		return fmt.Errorf("--force only supports SQLite storage")
	}
	path := s.GetConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	ok, err := cli.Confirm("Delete the existing database?", path, c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("init cancelled")
	}

	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path+suffix, err)
		}
	}
	return nil
}

// displayConn shows where the store lives without leaking PostgreSQL credentials.
func displayConn(store storage.Provider) string {
	s, ok := store.(*storage.SQLStore)
	if ok && s.Dialect() == storage.DialectPostgres {
		return maskPassword(s.GetConfigPath())
	}
	return store.GetConfigPath()
}

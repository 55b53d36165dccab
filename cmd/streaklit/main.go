package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/cli/backups"
	"github.com/julianstephens/streaklit/internal/cli/habits"
	"github.com/julianstephens/streaklit/internal/cli/reminders"
	"github.com/julianstephens/streaklit/internal/cli/system"
	"github.com/julianstephens/streaklit/internal/config"
	"github.com/julianstephens/streaklit/internal/constants"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (defaults to $STREAKLIT_CONFIG or ~/.config/streaklit/config.yaml)." type:"path"`
	DB      string `name:"db" help:"SQLite path or PostgreSQL connection string. Overrides database.conn. PostgreSQL credentials must NOT be embedded; use the keyring or .pgpass."`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize streaklit storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`

	Habit  habits.HabitCmd  `cmd:"" help:"Manage habits."`
	Mark   habits.MarkCmd   `cmd:"" help:"Record progress on a habit."`
	Unmark habits.UnmarkCmd `cmd:"" help:"Clear a day's progress on a habit."`
	Streak habits.StreakCmd `cmd:"" default:"1" help:"Show current and longest streaks."`
	Stats  habits.StatsCmd  `cmd:"" help:"Show completion statistics for a habit."`

	Remind     reminders.RemindCmd     `cmd:"" help:"Manage habit reminders."`
	Permission reminders.PermissionCmd `cmd:"" help:"Inspect or request notification permission."`

	Backup   backups.BackupCmd  `cmd:"" help:"Manage database backups."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage secrets in the OS keyring."`
	Settings system.SettingsCmd `cmd:"" help:"Manage application settings."`
	Serve    system.ServeCmd    `cmd:"" help:"Run the local API and reminder loop."`
	Notify   system.NotifyCmd   `cmd:"" hidden:"" help:"Fire due reminders (used internally)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := loadConfig()
	if err != nil {
		apperr.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug || CLI.Debug, ConfigDir: cfg.Log.Dir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	command := ctx.Command()
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{Ctx: runCtx, Config: cfg}

	// The keyring commands never touch the store.
	if !strings.HasPrefix(command, "keyring") {
		store, err := openStore(cfg)
		if err != nil {
			apperr.Fatal(err)
		}
		defer store.Close()
		appCtx.Store = store

		// init creates the store itself
		if !strings.HasPrefix(command, "init") {
			if err := store.Load(runCtx); err != nil {
				apperr.Fatal(err)
			}
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		stop()
		apperr.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if CLI.Config != "" {
		cfg, err = config.LoadFile(CLI.Config, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if CLI.DB != "" {
		cfg.Database.Conn = CLI.DB
	}
	return cfg, nil
}

// openStore resolves the connection string and picks the dialect. Connection strings
// read from the keyring may carry a password; anything else may not.
func openStore(cfg *config.Config) (*storage.SQLStore, error) {
	conn := cfg.Database.Conn
	fromKeyring := false
	if cfg.Database.UseKeyring && CLI.DB == "" {
		stored, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("database.use_keyring is set but no connection string is stored; run '%s keyring set'", constants.AppName)
			}
			return nil, err
		}
		conn = stored
		fromKeyring = true
	}

	if storage.IsPostgresConnString(conn) && !fromKeyring {
		if _, err := storage.ValidateConnString(conn); err != nil {
			if errors.Is(err, storage.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with '%s keyring set' or use .pgpass", err, constants.AppName)
			}
			return nil, err
		}
	}
	return storage.Open(conn), nil
}

package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/keyring"
	"github.com/julianstephens/streaklit/internal/storage"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show a stored secret (masked)."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
	Status KeyringStatusCmd `cmd:"" default:"1" help:"Check keyring availability."`
}

const (
	secretConnection = "connection"
	secretAPI        = "api-secret"
)

func accountFor(kind string) string {
	if kind == secretAPI {
		return keyring.AccountAPISecret
	}
	return keyring.AccountConnection
}

type KeyringSetCmd struct {
	Value  string `arg:"" help:"PostgreSQL connection string, or the API secret with --secret=api-secret."`
	Secret string `enum:"connection,api-secret" default:"connection" help:"Which secret to store (connection, api-secret)."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if cmd.Secret == secretConnection {
		if err := checkConnString(cmd.Value); err != nil {
			return err
		}
	}

	if err := keyring.Set(accountFor(cmd.Secret), cmd.Value); err != nil {
		return err
	}

	cli.Success("Stored %s in OS keyring", cmd.Secret)
	if cmd.Secret == secretConnection {
		fmt.Println("  Set database.use_keyring: true to connect with it")
	}
	return nil
}

func checkConnString(connStr string) error {
	if !storage.IsPostgresConnString(connStr) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := storage.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so embedded credentials are tolerated here.
		cli.Warning("Connection string contains embedded credentials.")
		fmt.Println("  It will be stored as-is in the encrypted OS keyring.")
	}
	return nil
}

type KeyringGetCmd struct {
	Secret string `enum:"connection,api-secret" default:"connection" help:"Which secret to show (connection, api-secret)."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	value, err := keyring.Get(accountFor(cmd.Secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'streaklit keyring set' to store one", cmd.Secret)
		}
		return err
	}

	if cmd.Secret == secretAPI {
		fmt.Println(maskSecret(value))
		return nil
	}
	fmt.Println(maskPassword(value))
	return nil
}

type KeyringDeleteCmd struct {
	Secret string `enum:"connection,api-secret" default:"connection" help:"Which secret to delete (connection, api-secret)."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(accountFor(cmd.Secret)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", cmd.Secret)
		}
		return err
	}

	cli.Success("Deleted %s from OS keyring", cmd.Secret)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println(cli.ErrStyle.Render("✗ OS keyring is not available on this system"))
		return keyring.ErrKeyringUnavailable
	}
	cli.Success("OS keyring is available")

	for _, kind := range []string{secretConnection, secretAPI} {
		_, err := keyring.Get(accountFor(kind))
		switch {
		case err == nil:
			cli.Row(kind, cli.OKStyle.Render("stored"))
		case errors.Is(err, keyring.ErrNotFound):
			cli.Row(kind, cli.MutedStyle.Render("not stored"))
		default:
			cli.Row(kind, cli.ErrStyle.Render(err.Error()))
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			// The last @ separates user info from host.
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		masked := make([]string, 0, len(parts))
		for _, part := range parts {
			if strings.HasPrefix(part, "password=") {
				part = "password=****"
			}
			masked = append(masked, part)
		}
		return strings.Join(masked, " ")
	}

	return connStr
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

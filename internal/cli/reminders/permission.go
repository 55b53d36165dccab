package reminders

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/notification"
)

type PermissionCmd struct {
	Check    PermissionCheckCmd    `cmd:"" help:"Show the notification permission." default:"1"`
	Request  PermissionRequestCmd  `cmd:"" help:"Ask for notification permission."`
	Settings PermissionSettingsCmd `cmd:"" help:"Open the system notification settings."`
}

type PermissionCheckCmd struct{}

func (c *PermissionCheckCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	a.Orchestrator.Invalidate()
	r := a.Orchestrator.Permission(ctx.Context())
	cli.Row("Permission", renderPermission(r))
	return nil
}

type PermissionRequestCmd struct{}

func (c *PermissionRequestCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	r := a.Orchestrator.RequestPermission(ctx.Context())
	cli.Row("Permission", renderPermission(r))

	switch r.(type) {
	case notification.DeniedPermanently, notification.GloballyDisabled:
		fmt.Println("Run 'streaklit permission settings' to allow notifications.")
	case notification.DeniedCanAskAgain:
		fmt.Println("Start the tray app and try again.")
	}
	return nil
}

type PermissionSettingsCmd struct{}

func (c *PermissionSettingsCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	opened, err := a.Orchestrator.OpenSettings(ctx.Context())
	if err != nil {
		return err
	}
	if !opened {
		cli.Warning("Could not open notification settings. Is the tray app running?")
		return nil
	}
	cli.Success("Opened notification settings")
	return nil
}

func renderPermission(r notification.PermissionResult) string {
	s := notification.FormatPermission(r)
	return notification.MatchPermission(r, notification.PermissionCases[string]{
		Granted:           func(notification.Granted) string { return cli.OKStyle.Render(s) },
		DeniedCanAskAgain: func(notification.DeniedCanAskAgain) string { return cli.WarnStyle.Render(s) },
		DeniedPermanently: func(notification.DeniedPermanently) string { return cli.ErrStyle.Render(s) },
		GloballyDisabled:  func(notification.GloballyDisabled) string { return cli.ErrStyle.Render(s) },
		PermissionError:   func(notification.PermissionError) string { return cli.ErrStyle.Render(s) },
	})
}

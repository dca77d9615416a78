package cli

import (
	"context"
	"flag"
	"fmt"
)

func newLogoutCommand() *Command {
	cmd := &Command{
		Name:        "logout",
		Description: "Sign out and discard the stored session",
		Flags:       flag.NewFlagSet("logout", flag.ExitOnError),
		Run:         runLogout,
	}

	return cmd
}

func runLogout(args []string) error {
	cmd := newLogoutCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(ctx)

	if err := app.machine.SignOut(ctx); err != nil {
		return fmt.Errorf("sign-out failed: %w", err)
	}
	if err := app.sessions.Delete(ctx, sessionKey); err != nil {
		app.logger.WithError(err).Warn("failed to discard stored session")
	}

	fmt.Println("Signed out")
	return nil
}

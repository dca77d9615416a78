package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mondoohq/console-core/pkg/auth"
	"github.com/mondoohq/console-core/pkg/identity"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Sign in with email and password",
		Flags:       flag.NewFlagSet("login", flag.ExitOnError),
		Run:         runLogin,
	}

	cmd.Flags.String("email", "", "Account email address")
	cmd.Flags.String("password", "", "Account password")
	cmd.Flags.String("mfa-code", "", "6-digit MFA code (prompted when required and omitted)")

	return cmd
}

func runLogin(args []string) error {
	cmd := newLoginCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	email := cmd.Flags.Lookup("email").Value.String()
	password := cmd.Flags.Lookup("password").Value.String()
	mfaCode := cmd.Flags.Lookup("mfa-code").Value.String()

	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(ctx)

	if err := app.machine.SignInWithPassword(ctx, email, password); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if app.machine.Status() == auth.StatusMFARequired {
		if mfaCode == "" {
			fmt.Print("MFA code: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read MFA code: %w", err)
			}
			mfaCode = strings.TrimSpace(line)
		}
		if err := app.machine.ResolveChallenge(ctx, mfaCode); err != nil {
			return fmt.Errorf("MFA verification failed: %w", err)
		}
	}

	snap := app.machine.Snapshot()
	if snap.Status != auth.StatusAuthenticated {
		if snap.Error != "" {
			return fmt.Errorf("sign-in failed: %s", snap.Error)
		}
		return fmt.Errorf("sign-in failed: status %s", snap.Status)
	}

	session := &auth.StoredSession{
		UID:       snap.User.UID,
		Email:     snap.User.Email,
		CreatedAt: time.Now(),
	}
	if restorer, ok := app.identity.(identity.SessionRestorer); ok {
		session.RefreshToken = restorer.RefreshHandle()
	}
	if err := app.sessions.Save(ctx, sessionKey, session); err != nil {
		app.logger.WithError(err).Warn("failed to persist session")
	}

	fmt.Printf("Signed in as %s\n", snap.User.Email)
	return nil
}

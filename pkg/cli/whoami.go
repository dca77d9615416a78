package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/mondoohq/console-core/pkg/viewer"
)

func newWhoamiCommand() *Command {
	cmd := &Command{
		Name:        "whoami",
		Description: "Show the signed-in profile",
		Flags:       flag.NewFlagSet("whoami", flag.ExitOnError),
		Run:         runWhoami,
	}

	return cmd
}

func runWhoami(args []string) error {
	cmd := newWhoamiCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(ctx)

	v, settings, err := app.viewer.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	fmt.Printf("MRN:   %s\n", v.MRN)
	fmt.Printf("Name:  %s\n", v.Name)
	fmt.Printf("Email: %s\n", v.Email)
	if v.State != "" && v.State != viewer.UserStateUnknown {
		fmt.Printf("State: %s\n", v.State)
	}
	if settings.LastSpaceID != "" {
		fmt.Printf("Last space: %s\n", settings.LastSpaceID)
	}

	if len(v.Organizations) > 0 {
		fmt.Printf("\nOrganizations:\n")
		for _, org := range v.Organizations {
			fmt.Printf("  %-20s %s (%d spaces)\n", org.ID, org.Name, org.SpacesCount)
		}
	}

	return nil
}

package cli

import (
	"flag"
	"fmt"
	"sort"

	"github.com/mondoohq/console-core/pkg/config"
)

func newFlagsCommand() *Command {
	cmd := &Command{
		Name:        "flags",
		Description: "Print the effective feature-flag set",
		Flags:       flag.NewFlagSet("flags", flag.ExitOnError),
		Run:         runFlags,
	}

	return cmd
}

func runFlags(args []string) error {
	cmd := newFlagsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	effective := config.NewFlagResolver(cfg.Flags).Effective()

	names := make([]string, 0, len(effective))
	for name := range effective {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		state := "disabled"
		if effective[name] {
			state = "enabled"
		}
		fmt.Printf("%-30s %s\n", name, state)
	}
	return nil
}

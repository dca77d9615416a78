package cli

import (
	"flag"
	"fmt"
	"sort"
)

// Command is one node of the CLI tree. Leaf commands carry a Run
// function; the root dispatches to Subcommands.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand builds the console-cli command tree.
func NewRootCommand() *Command {
	root := &Command{
		Name:        "console-cli",
		Description: "Console - Security Posture CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("console-cli", flag.ExitOnError),
	}

	for _, cmd := range []*Command{
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newVulnsCommand(),
		newAdvisoriesCommand(),
		newAssetsCommand(),
		newExceptionsCommand(),
		newFlagsCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute dispatches args to the matching subcommand. An empty
// argument list or a help flag prints usage.
func (c *Command) Execute(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command list in name order.
func (c *Command) usage() error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

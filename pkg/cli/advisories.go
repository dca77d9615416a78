package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/mondoohq/console-core/pkg/console"
	"github.com/mondoohq/console-core/pkg/scope"
)

func newAdvisoriesCommand() *Command {
	cmd := &Command{
		Name:        "advisories",
		Description: "List advisories for a space",
		Flags:       flag.NewFlagSet("advisories", flag.ExitOnError),
		Run:         runAdvisories,
	}

	cmd.Flags.String("space", "", "Space ID")
	cmd.Flags.Int("limit", 25, "Page size")
	cmd.Flags.Bool("all", false, "Fetch all pages")

	return cmd
}

func runAdvisories(args []string) error {
	cmd := newAdvisoriesCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	spaceID := cmd.Flags.Lookup("space").Value.String()
	limit, _ := strconv.Atoi(cmd.Flags.Lookup("limit").Value.String())
	all := cmd.Flags.Lookup("all").Value.String() == "true"

	if spaceID == "" {
		return fmt.Errorf("space is required")
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close(ctx)

	sp, err := app.resolveSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if err := app.requirePermission(scope.ActionSpaceAdvisoriesView); err != nil {
		return err
	}

	fmt.Printf("%-24s %-10s %8s  %s\n", "ADVISORY", "SEVERITY", "ASSETS", "TITLE")
	print := func(page *console.Page[console.Advisory]) error {
		for _, adv := range page.Nodes {
			fmt.Printf("%-24s %-10s %8d  %s\n",
				adv.AdvisoryID, adv.Severity, adv.AffectedAssets, adv.Title)
		}
		return nil
	}

	fetch := func(ctx context.Context, opts console.ListOptions) (*console.Page[console.Advisory], error) {
		return app.console.Advisories(ctx, sp.MRN, opts)
	}

	opts := console.ListOptions{First: limit}
	if all {
		return console.Pages(ctx, opts, fetch, print)
	}

	page, err := fetch(ctx, opts)
	if err != nil {
		return err
	}
	if err := print(page); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d advisories\n", len(page.Nodes), page.TotalCount)
	return nil
}

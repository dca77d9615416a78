package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/mondoohq/console-core/pkg/console"
	"github.com/mondoohq/console-core/pkg/scope"
)

func newAssetsCommand() *Command {
	cmd := &Command{
		Name:        "assets",
		Description: "List assets for a space",
		Flags:       flag.NewFlagSet("assets", flag.ExitOnError),
		Run:         runAssets,
	}

	cmd.Flags.String("space", "", "Space ID")
	cmd.Flags.Int("limit", 25, "Page size")
	cmd.Flags.Bool("all", false, "Fetch all pages")

	return cmd
}

func runAssets(args []string) error {
	cmd := newAssetsCommand()
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
	if err := app.requirePermission(scope.ActionSpaceAssetsView); err != nil {
		return err
	}

	fmt.Printf("%-30s %-20s %-12s %6s\n", "NAME", "PLATFORM", "STATE", "SCORE")
	print := func(page *console.Page[console.Asset]) error {
		for _, asset := range page.Nodes {
			fmt.Printf("%-30s %-20s %-12s %6.0f\n",
				asset.Name, asset.Platform.Name, asset.State, asset.Score.Value)
		}
		return nil
	}

	fetch := func(ctx context.Context, opts console.ListOptions) (*console.Page[console.Asset], error) {
		return app.console.Assets(ctx, sp.MRN, opts)
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
	fmt.Printf("\n%d of %d assets\n", len(page.Nodes), page.TotalCount)
	return nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/mondoohq/console-core/pkg/console"
	"github.com/mondoohq/console-core/pkg/scope"
)

func newVulnsCommand() *Command {
	cmd := &Command{
		Name:        "vulns",
		Description: "List vulnerabilities for a space",
		Flags:       flag.NewFlagSet("vulns", flag.ExitOnError),
		Run:         runVulns,
	}

	cmd.Flags.String("space", "", "Space ID")
	cmd.Flags.Int("limit", 25, "Page size")
	cmd.Flags.String("severity", "", "Filter by severity (CRITICAL, HIGH, MEDIUM, LOW)")
	cmd.Flags.Bool("all", false, "Fetch all pages")

	return cmd
}

func runVulns(args []string) error {
	cmd := newVulnsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	spaceID := cmd.Flags.Lookup("space").Value.String()
	limit, _ := strconv.Atoi(cmd.Flags.Lookup("limit").Value.String())
	severity := cmd.Flags.Lookup("severity").Value.String()
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
	if err := app.requirePermission(scope.ActionSpaceVulnerabilitiesView); err != nil {
		return err
	}

	opts := console.ListOptions{First: limit}
	if severity != "" {
		opts.Filter = map[string]interface{}{"severity": severity}
	}

	fmt.Printf("%-20s %-10s %6s %8s  %s\n", "CVE", "SEVERITY", "CVSS", "ASSETS", "TITLE")
	print := func(page *console.Page[console.Vulnerability]) error {
		for _, vuln := range page.Nodes {
			fmt.Printf("%-20s %-10s %6.1f %8d  %s\n",
				vuln.CVEID, vuln.Severity, vuln.CVSSScore, vuln.AffectedAssets, vuln.Title)
		}
		return nil
	}

	fetch := func(ctx context.Context, opts console.ListOptions) (*console.Page[console.Vulnerability], error) {
		return app.console.Vulnerabilities(ctx, sp.MRN, opts)
	}

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
	fmt.Printf("\n%d of %d vulnerabilities\n", len(page.Nodes), page.TotalCount)
	return nil
}
